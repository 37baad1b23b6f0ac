package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/dataset/csv"
	"github.com/datajms/skope-rules/feature/yaml"
)

type splitCmdConfig struct {
	*rootCmdConfig
	setInput         string
	metadataInput    string
	setOutput        string
	splitOutput      string
	splitProbability int
	seed             int64
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into two sets",
		Long:  `Split a CSV set into an output set and a split set, for instance to hold out samples to score`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			config.Logf("Reading metadata from %s...", config.metadataInput)
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			if config.setOutput != "" {
				config.Logf("Creating %s to dump output set...", config.setOutput)
			} else {
				config.Logf("Using STDOUT to dump output set...")
			}
			outputFile, err := create(config.setOutput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			if outputFile != os.Stdout {
				defer outputFile.Close()
			}
			output, err := csv.NewWriter(outputFile, md.Features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}

			config.Logf("Creating %s to dump split set...", config.splitOutput)
			splitOutputFile, err := os.Create(config.splitOutput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			defer splitOutputFile.Close()
			splitOutput, err := csv.NewWriter(splitOutputFile, md.Features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}

			seed := config.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			randomizer := rand.New(rand.NewSource(seed))
			splitter := func(i int, s dataset.Sample) (bool, error) {
				var err error
				if (100 * randomizer.Float32()) > float32(config.splitProbability) {
					err = output.Write(s)
				} else {
					err = splitOutput.Write(s)
				}
				if err != nil {
					return false, err
				}
				return true, nil
			}

			var f *os.File
			if config.setInput == "" {
				config.Logf("Reading input set from STDIN and splitting it into output and split output sets...")
				f = os.Stdin
			} else {
				config.Logf("Opening %s to read input set...", config.setInput)
				f, err = os.Open(config.setInput)
				if err != nil {
					err = fmt.Errorf("reading input set from %s: %v", config.setInput, err)
					fmt.Fprintln(os.Stderr, err)
					os.Exit(7)
				}
				defer f.Close()
				config.Logf("Splitting input set into output and split output sets...")
			}
			err = csv.ReadBySample(f, md.Features, md.Label, splitter)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
			config.Logf("Flushing output set...")
			err = output.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
			config.Logf("Flushing split set...")
			err = splitOutput.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(10)
			}
			config.Logf("Done")
			config.Logf("Input set with %d samples was split into sets with %d and %d samples", output.Count()+splitOutput.Count(), output.Count(), splitOutput.Count())
		},
	}
	cmd.Flags().StringVarP(&(config.setInput), "input", "i", "", "path to an input CSV file with the set to split (defaults to STDIN)")
	cmd.Flags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata naming the features and the label of the input set (required)")
	cmd.Flags().StringVarP(&(config.setOutput), "output", "o", "", "path to a file to dump the output set (defaults to STDOUT)")
	cmd.Flags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "probability as percent integer that a sample of the set will be assigned to the split set")
	cmd.Flags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a file to dump the output of the split set (required)")
	cmd.Flags().Int64Var(&(config.seed), "seed", 0, "seed for the split (defaults to the current time)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitProbability <= 0 || scc.splitProbability > 100 {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 100")
	}
	return nil
}
