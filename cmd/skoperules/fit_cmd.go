package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	skoperules "github.com/datajms/skope-rules"
	"github.com/datajms/skope-rules/feature/yaml"
	rulejson "github.com/datajms/skope-rules/rule/json"
	treejson "github.com/datajms/skope-rules/tree/json"
)

type fitCmdConfig struct {
	*rootCmdConfig
	source
	metadataInput   string
	paramsInput     string
	output          string
	treesOutput     string
	storeURL        string
	name            string
	nEstimators     int
	topN            int
	holdoutFraction float64
	maxDepth        int
	seed            int64
	jobs            int
}

func fitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &fitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Learn a rule set from a labelled set of data",
		Long:  `Grow trees on a labelled set of data, extract their rules and rank them by their precision on fraud`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			config.Logf("Reading metadata from %s...", config.metadataInput)
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			params, err := config.params(cmd, md.Features)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			trainingSet, err := config.readDataset(ctx, config.source, md.Features, md.Label)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reading training set: %v\n", err)
				os.Exit(4)
			}
			if trainingSet.Y == nil {
				fmt.Fprintf(os.Stderr, "training set has unlabelled samples: every sample needs a %s value\n", md.Label)
				os.Exit(4)
			}
			model, err := skoperules.New(params, skoperules.WithMetrics(config.metrics()))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			config.Logf("Fitting %d trees on a set with %d samples and %d features...", params.NEstimators, trainingSet.Rows(), trainingSet.Cols())
			err = model.Fit(ctx, trainingSet.X, trainingSet.Y)
			if err != nil {
				fmt.Fprintf(os.Stderr, "fitting the model: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Done")
			rs, err := model.RuleSet()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			err = outputRuleSet(config.output, rs)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			if config.treesOutput != "" {
				err = config.outputTrees(model)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(8)
				}
			}
			if config.storeURL != "" {
				err = config.saveRuleSet(ctx, config.storeURL, config.name, rs)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(9)
				}
			}
			err = config.dumpMetrics()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(10)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.input), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, a PostgreSQL DB connection URL or a MongoDB URL with data to learn the rules from (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().StringVar(&(config.table), "table", "samples", "table with the samples when reading from a SQL database")
	cmd.Flags().StringVar(&(config.collection), "collection", "samples", "collection with the samples when reading from MongoDB")
	cmd.Flags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata naming the features and the label of the input set (required)")
	cmd.Flags().StringVarP(&(config.paramsInput), "params", "p", "", "path to a YML file with the hyperparameters of the model")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the rule set will be written in JSON format (defaults to STDOUT)")
	cmd.Flags().StringVar(&(config.treesOutput), "trees", "", "path to a file to which the grown trees will be written in JSON format")
	cmd.Flags().StringVar(&(config.storeURL), "store", "", "URL of a store to save the rule set (mem://, bolt://, redis://, sqlite3:// or postgres://)")
	cmd.Flags().StringVar(&(config.name), "name", "", "name to save the rule set under in the store (required with store)")
	cmd.Flags().IntVarP(&(config.nEstimators), "n-estimators", "n", 0, "number of trees to grow (overrides params)")
	cmd.Flags().IntVar(&(config.topN), "top-n", 0, "number of best rules to score with (overrides params)")
	cmd.Flags().Float64Var(&(config.holdoutFraction), "holdout-fraction", 0, "fraction of the samples held out to rank the rules (overrides params)")
	cmd.Flags().IntVar(&(config.maxDepth), "max-depth", 0, "maximum depth of the trees (overrides params)")
	cmd.Flags().Int64Var(&(config.seed), "seed", 0, "seed for the random number generators (overrides params)")
	cmd.Flags().IntVarP(&(config.jobs), "jobs", "j", 0, "number of trees grown and rules ranked concurrently (overrides params)")
	return cmd
}

func (fcc *fitCmdConfig) Validate() error {
	if fcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if fcc.storeURL != "" && fcc.name == "" {
		return fmt.Errorf("required name flag was not set")
	}
	if fcc.name != "" && fcc.storeURL == "" {
		return fmt.Errorf("name flag was set without a store flag")
	}
	return nil
}

/*
params returns the hyperparameters read from the params file, if any,
with the values of the flags set on the command line taking precedence
and the features as feature names.
*/
func (fcc *fitCmdConfig) params(cmd *cobra.Command, features []string) (skoperules.Params, error) {
	params := skoperules.DefaultParams()
	if fcc.paramsInput != "" {
		fcc.Logf("Reading params from %s...", fcc.paramsInput)
		var err error
		params, err = skoperules.ReadParamsFromFile(fcc.paramsInput)
		if err != nil {
			return params, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("n-estimators") {
		// a top N defaulted to the number of trees follows it
		if params.TopN == params.NEstimators {
			params.TopN = fcc.nEstimators
		}
		params.NEstimators = fcc.nEstimators
	}
	if flags.Changed("top-n") {
		if fcc.topN < 1 {
			return params, fmt.Errorf("top-n flag was set to an invalid value: it must be set to an integer of at least 1")
		}
		params.TopN = fcc.topN
	}
	if flags.Changed("holdout-fraction") {
		params.HoldoutFraction = fcc.holdoutFraction
	}
	if flags.Changed("max-depth") {
		params.MaxDepth = fcc.maxDepth
	}
	if flags.Changed("seed") {
		params.Seed = fcc.seed
	}
	if flags.Changed("jobs") {
		params.Jobs = fcc.jobs
	}
	params.FeatureNames = features
	return params, params.Validate()
}

func (fcc *fitCmdConfig) outputTrees(model *skoperules.Model) error {
	trees, err := model.Estimators()
	if err != nil {
		return err
	}
	fcc.Logf("Writing %d trees to %s...", len(trees), fcc.treesOutput)
	f, err := os.Create(fcc.treesOutput)
	if err != nil {
		return err
	}
	defer f.Close()
	return treejson.WriteJSONTrees(f, trees)
}

func outputRuleSet(path string, rs *rulejson.RuleSet) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if f != os.Stdout {
		defer f.Close()
	}
	return rulejson.Write(f, rs)
}
