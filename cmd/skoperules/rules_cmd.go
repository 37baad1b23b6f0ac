package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	skoperules "github.com/datajms/skope-rules"
)

type rulesCmdConfig struct {
	*rootCmdConfig
	rulesInput string
	storeURL   string
	name       string
}

func rulesCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &rulesCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the rules of a rule set",
		Long:  `Show the ranked rules of a rule set with their weight and number of matches, marking the selected ones with *`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			rs, err := config.loadRuleSet(context.Background(), config.rulesInput, config.storeURL, config.name)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			topN := rs.TopN
			if topN == 0 {
				topN = skoperules.DefaultParams().TopN
			}
			out := cmd.OutOrStdout()
			for i, r := range rs.Rules {
				mark := " "
				if i < topN {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %.4f %6d  %v\n", mark, r.Weight, r.Matches, r.Rule)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.rulesInput), "rules", "r", "", "path to a file from which the rule set will be read and parsed as JSON")
	cmd.Flags().StringVar(&(config.storeURL), "store", "", "URL of a store from which the rule set will be loaded")
	cmd.Flags().StringVar(&(config.name), "name", "", "name of the rule set in the store (required with store)")
	return cmd
}

func (rcc *rulesCmdConfig) Validate() error {
	return ruleSetSource(rcc.rulesInput, rcc.storeURL, rcc.name)
}
