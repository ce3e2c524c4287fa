package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spectralab/zhukovsky/pkg/batch"
	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/paths"
	"github.com/spectralab/zhukovsky/pkg/surface"
	"github.com/spectralab/zhukovsky/pkg/utils"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zhukovsky",
		Short: "Spectral surface explorer for integrable kinematics",
		Long: `Builds branch cut contours, bound states and saved trajectories for the
Zhukovsky-variable parametrization of integrable spin chain kinematics.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zhukovsky/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add commands
	rootCmd.AddCommand(
		initCmd(),
		contoursCmd(),
		stateCmd(),
		pathsCmd(),
	)

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}

		viper.AddConfigPath(home + "/.zhukovsky")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
}

func loadConstants(cmd *cobra.Command) (kinematics.CouplingConstants, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return kinematics.CouplingConstants{}, err
	}

	h := config.Coupling.H
	k := config.Coupling.K
	if cmd.Flags().Changed("h") {
		h, _ = cmd.Flags().GetFloat64("h")
	}
	if cmd.Flags().Changed("k") {
		k, _ = cmd.Flags().GetInt("k")
	}

	consts := kinematics.NewCouplingConstants(h, k)
	if err := consts.Validate(); err != nil {
		return kinematics.CouplingConstants{}, err
	}
	return consts, nil
}

func addCouplingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("h", 2.0, "coupling constant h")
	cmd.Flags().Int("k", 5, "level k")
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _ := cmd.Flags().GetFloat64("h")
			k, _ := cmd.Flags().GetInt("k")
			workers, _ := cmd.Flags().GetInt("workers")

			config := utils.DefaultConfig()
			config.Coupling.H = h
			config.Coupling.K = k
			config.Batch.Workers = workers

			if err := utils.SaveConfig(config); err != nil {
				return err
			}

			path, err := utils.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Println("Wrote config to", path)
			return nil
		},
	}

	addCouplingFlags(cmd)
	cmd.Flags().Int("workers", 4, "batch worker count")

	return cmd
}

func contoursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contours",
		Short: "Build the branch cut contours for one coupling",
		RunE: func(cmd *cobra.Command, args []string) error {
			consts, err := loadConstants(cmd)
			if err != nil {
				return err
			}

			jobs := []batch.Job{{Consts: consts}}
			gen := batch.NewGenerator(1, jobs)

			results, err := gen.Run(cmd.Context())
			if err != nil {
				return err
			}

			cuts := results[0].Contours.Cuts()
			fmt.Printf("Built %d cuts for h=%g k=%d\n", len(cuts), consts.H, consts.K())
			return nil
		},
	}

	addCouplingFlags(cmd)

	return cmd
}

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Build a bound state and print its charge totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			consts, err := loadConstants(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("points")
			if n < 1 {
				return fmt.Errorf("state needs at least one point")
			}

			st := surface.NewState(n, consts)

			p := st.P()
			en := st.En(consts)
			fmt.Printf("State with %d points at h=%g k=%d\n", n, consts.H, consts.K())
			fmt.Printf("  P = %g%+gi\n", real(p), imag(p))
			fmt.Printf("  E = %g%+gi\n", real(en), imag(en))

			if encode, _ := cmd.Flags().GetBool("encode"); encode {
				saved := &paths.SavedState{Consts: consts, State: *st}
				encoded, err := saved.EncodeCompressed()
				if err != nil {
					return err
				}
				fmt.Println(encoded)
			}
			return nil
		},
	}

	addCouplingFlags(cmd)
	cmd.Flags().Int("points", 1, "number of points in the bound state")
	cmd.Flags().Bool("encode", false, "print the compressed state snapshot")

	return cmd
}

func pathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Generate and inspect saved states",
	}

	cmd.AddCommand(
		pathsGenerateCmd(),
		pathsDecodeCmd(),
	)

	return cmd
}

func pathsGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Batch-generate encoded states for a list of couplings",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return err
			}

			pairs, _ := cmd.Flags().GetStringSlice("couplings")
			points, _ := cmd.Flags().GetInt("points")
			outDir, _ := cmd.Flags().GetString("output")
			if outDir == "" {
				outDir = config.Output.Dir
			}

			jobs := make([]batch.Job, 0, len(pairs))
			for _, pair := range pairs {
				var h float64
				var k int
				if _, err := fmt.Sscanf(pair, "%g:%d", &h, &k); err != nil {
					return fmt.Errorf("coupling %q: want h:k, e.g. 2.0:5", pair)
				}
				jobs = append(jobs, batch.Job{
					Consts:      kinematics.NewCouplingConstants(h, k),
					StatePoints: points,
				})
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no couplings given")
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			gen := batch.NewGenerator(config.Batch.Workers, jobs)
			results, err := gen.Run(cmd.Context())
			if err != nil {
				return err
			}

			for i, result := range results {
				name := fmt.Sprintf("state-h%g-k%d-n%d.txt",
					jobs[i].Consts.H, jobs[i].Consts.K(), points)
				path := filepath.Join(outDir, name)
				if err := os.WriteFile(path, []byte(result.Encoded), 0644); err != nil {
					return err
				}
				fmt.Println("Wrote", path)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("couplings", []string{}, "coupling pairs as h:k, e.g. 2.0:5,1.5:0")
	cmd.Flags().Int("points", 1, "points per bound state")
	cmd.Flags().String("output", "", "output directory (default from config)")
	cmd.MarkFlagRequired("couplings")

	return cmd
}

func pathsDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a saved state or path and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			input := strings.TrimSpace(string(data))

			if saved, err := paths.DecodeState(input); err == nil {
				st := saved.State
				fmt.Printf("State: %d points, h=%g k=%d\n",
					len(st.Points), saved.Consts.H, saved.Consts.K())
				p := st.P()
				en := st.En(saved.Consts)
				fmt.Printf("  P = %g%+gi\n", real(p), imag(p))
				fmt.Printf("  E = %g%+gi\n", real(en), imag(en))
				return nil
			}

			saved, err := paths.DecodePath(input)
			if err != nil {
				return err
			}
			fmt.Printf("Path %q: %d states, h=%g k=%d\n",
				saved.Name, len(saved.States), saved.Consts.H, saved.Consts.K())
			return nil
		},
	}

	return cmd
}
