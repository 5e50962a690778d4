package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/banachtech/option-pricer/api"
	"github.com/banachtech/option-pricer/config"
	"github.com/banachtech/option-pricer/crr"
	"github.com/banachtech/option-pricer/mainfuncs"
	"github.com/banachtech/option-pricer/mc"
	"github.com/banachtech/option-pricer/util"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "option-pricer",
	Short: "Price single-asset options with Black-Scholes, CRR trees and Monte-Carlo",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		if cfg, err = config.Load(path); err != nil {
			return err
		}
		return cfg.SetupLogging()
	},
	SilenceUsage: true,
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Compare every applicable pricing method for one contract",
	Run: func(cmd *cobra.Command, args []string) {
		req, err := requestFromFlags(cmd)
		if err != nil {
			log.Fatalf("error reading flags: %v", err)
		}
		report, err := mainfuncs.Compare(req)
		if err != nil {
			log.Fatalf("error pricing: %v", err)
		}

		fmt.Println(report.Contract)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Method", "Price", "Delta", "95% CI", "Paths", "Elapsed"})
		for _, res := range report.Results {
			if res.Skipped != "" {
				table.Append([]string{res.Method, "-", "-", "-", "-", res.Skipped})
				continue
			}
			delta, ci, paths := "-", "-", "-"
			if res.Delta != nil {
				delta = fmt.Sprintf("%.6f", *res.Delta)
			}
			if res.Low != nil && res.High != nil {
				ci = fmt.Sprintf("[%.6f, %.6f]", *res.Low, *res.High)
			}
			if res.Paths > 0 {
				paths = strconv.FormatInt(res.Paths, 10)
			}
			table.Append([]string{res.Method, fmt.Sprintf("%.6f", res.Price), delta, ci, paths, res.Elapsed.Round(time.Microsecond).String()})
		}
		table.Render()
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run Monte-Carlo in batches until the confidence interval is narrow enough",
	Run: func(cmd *cobra.Command, args []string) {
		req, err := requestFromFlags(cmd)
		if err != nil {
			log.Fatalf("error reading flags: %v", err)
		}
		target, err := cmd.Flags().GetFloat64("target")
		if err != nil {
			log.Fatalf("error getting target: %v", err)
		}
		if target <= 0 {
			target = cfg.Engine.TargetWidth
		}
		opt, err := req.Contract()
		if err != nil {
			log.Fatalf("error building contract: %v", err)
		}

		opts := []mc.Option{mc.WithWorkers(req.Workers)}
		if req.Seed != 0 {
			opts = append(opts, mc.WithSeed(req.Seed))
		}
		sim, err := mc.New(opt, req.Spot, req.Rate, req.Vol, opts...)
		if err != nil {
			log.Fatalf("error building simulation: %v", err)
		}

		bar := mainfuncs.ProgressBar(req.Paths, os.Stderr)
		out, err := mainfuncs.Converge(sim, cfg.Engine.Batch, req.Paths, target, bar)
		if err != nil {
			log.Fatalf("error simulating: %v", err)
		}
		mainfuncs.FinishProgress(bar)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Contract", "Price", "95% CI", "Width", "Paths", "Converged"})
		table.Append([]string{
			opt.String(),
			fmt.Sprintf("%.6f", out.Price),
			fmt.Sprintf("[%.6f, %.6f]", out.Low, out.High),
			fmt.Sprintf("%.6f", out.High-out.Low),
			strconv.FormatInt(out.Paths, 10),
			strconv.FormatBool(out.Converged),
		})
		table.Render()
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print a CRR option tree",
	Run: func(cmd *cobra.Command, args []string) {
		req, err := requestFromFlags(cmd)
		if err != nil {
			log.Fatalf("error reading flags: %v", err)
		}
		opt, err := req.Contract()
		if err != nil {
			log.Fatalf("error building contract: %v", err)
		}
		tree, err := crr.NewFromMarket(opt, req.Depth, req.Spot, req.Rate, req.Vol)
		if err != nil {
			log.Fatalf("error building tree: %v", err)
		}
		price, err := tree.Value()
		if err != nil {
			log.Fatalf("error computing tree: %v", err)
		}
		fmt.Printf("%v price=%.6f q=%.6f\n", opt, price, tree.RiskNeutralProb())
		if err := tree.Display(os.Stdout); err != nil {
			log.Fatalf("error printing tree: %v", err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing API over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		address, err := cmd.Flags().GetString("address")
		if err != nil {
			log.Fatalf("error getting address: %v", err)
		}
		if address == "" {
			address = cfg.Server.Address
		}
		if cfg.Server.APIKeyHash == "" {
			log.Warn("API_KEY_HASH is not set, /v1 routes are unauthenticated")
		}

		server := api.NewServer(cfg)
		log.WithField("address", address).Info("serving")
		if err := server.Start(address); err != nil {
			log.Fatalf("cannot start server: %v", err)
		}
	},
}

func addContractFlags(cmd *cobra.Command) {
	cmd.Flags().String("style", "european", "european, digital, american or asian")
	cmd.Flags().String("type", "call", "call or put")
	cmd.Flags().Float64("strike", 100, "strike price")
	cmd.Flags().Float64("expiry", 1, "expiry in years")
	cmd.Flags().Float64Slice("fixings", nil, "asian fixing times in years")
	cmd.Flags().Int("tenor", 0, "asian tenor in months, fixings are generated on the NYSE calendar from today")
	cmd.Flags().Int("freq", 1, "asian fixing frequency in months")
	cmd.Flags().Float64("spot", 100, "spot price")
	cmd.Flags().Float64("rate", 0.05, "continuously compounded risk-free rate")
	cmd.Flags().Float64("vol", 0.2, "volatility")
	cmd.Flags().Int("depth", 0, "tree depth (config default when 0)")
	cmd.Flags().Int("paths", 0, "Monte-Carlo paths (config default when 0)")
	cmd.Flags().Int("workers", 0, "Monte-Carlo workers (config default when 0)")
	cmd.Flags().Uint64("seed", 0, "Monte-Carlo seed (config default when 0)")
}

func requestFromFlags(cmd *cobra.Command) (mainfuncs.Request, error) {
	var req mainfuncs.Request
	var err error
	flags := cmd.Flags()
	if req.Style, err = flags.GetString("style"); err != nil {
		return req, err
	}
	if req.Type, err = flags.GetString("type"); err != nil {
		return req, err
	}
	if req.Strike, err = flags.GetFloat64("strike"); err != nil {
		return req, err
	}
	if req.Expiry, err = flags.GetFloat64("expiry"); err != nil {
		return req, err
	}
	if req.Fixings, err = flags.GetFloat64Slice("fixings"); err != nil {
		return req, err
	}
	if req.Spot, err = flags.GetFloat64("spot"); err != nil {
		return req, err
	}
	if req.Rate, err = flags.GetFloat64("rate"); err != nil {
		return req, err
	}
	if req.Vol, err = flags.GetFloat64("vol"); err != nil {
		return req, err
	}
	if req.Depth, err = flags.GetInt("depth"); err != nil {
		return req, err
	}
	if req.Paths, err = flags.GetInt("paths"); err != nil {
		return req, err
	}
	if req.Workers, err = flags.GetInt("workers"); err != nil {
		return req, err
	}
	if req.Seed, err = flags.GetUint64("seed"); err != nil {
		return req, err
	}

	tenor, err := flags.GetInt("tenor")
	if err != nil {
		return req, err
	}
	if tenor > 0 && len(req.Fixings) == 0 {
		freq, err := flags.GetInt("freq")
		if err != nil {
			return req, err
		}
		today, err := time.Parse(util.Layout, time.Now().Format(util.Layout))
		if err != nil {
			return req, err
		}
		if req.Fixings, err = util.MonthlyFixings(today, tenor, freq); err != nil {
			return req, err
		}
	}

	req.ApplyDefaults(cfg.Engine)
	return req, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "path to the YAML config file")

	for _, cmd := range []*cobra.Command{priceCmd, simulateCmd, treeCmd} {
		addContractFlags(cmd)
	}
	simulateCmd.Flags().Float64("target", 0, "target confidence interval width (config default when 0)")
	serveCmd.Flags().String("address", "", "listen address (config default when empty)")

	rootCmd.AddCommand(priceCmd, simulateCmd, treeCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
