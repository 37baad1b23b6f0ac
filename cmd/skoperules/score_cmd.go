package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	skoperules "github.com/datajms/skope-rules"
	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/dataset/csv"
	"github.com/datajms/skope-rules/scoring"
)

type scoreCmdConfig struct {
	*rootCmdConfig
	source
	rulesInput string
	storeURL   string
	name       string
	output     string
	topN       int
	topNSet    bool
}

func scoreCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &scoreCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a set of data with a rule set",
		Long:  `Score every sample of a set of data with the selected rules of a rule set, writing its score and label as additional CSV columns`,
		Run: func(cmd *cobra.Command, args []string) {
			config.topNSet = cmd.Flags().Changed("top-n")
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			rs, err := config.loadRuleSet(ctx, config.rulesInput, config.storeURL, config.name)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if config.topNSet {
				rs.TopN = config.topN
			}
			model, err := skoperules.New(skoperules.DefaultParams(), skoperules.WithMetrics(config.metrics()))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			err = model.Load(rs)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			d, err := config.readDataset(ctx, config.source, rs.Features, "")
			if err != nil {
				fmt.Fprintf(os.Stderr, "reading input set: %v\n", err)
				os.Exit(4)
			}
			config.Logf("Scoring %d samples...", d.Rows())
			scores, err := model.DecisionFunction(d.X)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			f, err := create(config.output)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			if f != os.Stdout {
				defer f.Close()
			}
			w, err := csv.NewWriter(f, rs.Features, "", "score", "label")
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			var outliers int
			for i, s := range scores {
				label := scoring.Label(s)
				if label == dataset.Fraud {
					outliers++
				}
				err = w.Write(d.Sample(i), strconv.FormatFloat(s, 'g', -1, 64), strconv.Itoa(label))
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(7)
				}
			}
			err = w.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			config.Logf("Done")
			config.Logf("%d of %d samples labelled as outliers", outliers, w.Count())
			err = config.dumpMetrics()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.rulesInput), "rules", "r", "", "path to a file from which the rule set will be read and parsed as JSON")
	cmd.Flags().StringVar(&(config.storeURL), "store", "", "URL of a store from which the rule set will be loaded")
	cmd.Flags().StringVar(&(config.name), "name", "", "name of the rule set in the store (required with store)")
	cmd.Flags().StringVarP(&(config.input), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, a PostgreSQL DB connection URL or a MongoDB URL with the data to score (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().StringVar(&(config.table), "table", "samples", "table with the samples when reading from a SQL database")
	cmd.Flags().StringVar(&(config.collection), "collection", "samples", "collection with the samples when reading from MongoDB")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the scored samples will be written in CSV format (defaults to STDOUT)")
	cmd.Flags().IntVar(&(config.topN), "top-n", 0, "number of best rules to score with (overrides the rule set)")
	return cmd
}

func (scc *scoreCmdConfig) Validate() error {
	if scc.topNSet && scc.topN < 1 {
		return fmt.Errorf("top-n flag was set to an invalid value: it must be set to an integer of at least 1")
	}
	return ruleSetSource(scc.rulesInput, scc.storeURL, scc.name)
}
