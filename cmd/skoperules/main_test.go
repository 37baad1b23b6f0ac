package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rulejson "github.com/datajms/skope-rules/rule/json"
)

func writeFixtures(t *testing.T) (dir, metadata, data string) {
	dir = t.TempDir()
	metadata = filepath.Join(dir, "metadata.yml")
	require.NoError(t, os.WriteFile(metadata, []byte("label: fraud\nfeatures:\n  - age\n  - amount\n"), 0o644))
	var b strings.Builder
	b.WriteString("age,amount,fraud\n")
	for i := 0; i < 60; i++ {
		age := 18 + (i*7)%50
		label := 1
		if age <= 30 {
			label = -1
		}
		fmt.Fprintf(&b, "%d,%d,%d\n", age, (i*37)%2000, label)
	}
	data = filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(data, []byte(b.String()), 0o644))
	return dir, metadata, data
}

func run(t *testing.T, args ...string) string {
	cmd := cliParser()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestFitRulesScore(t *testing.T) {
	dir, metadata, data := writeFixtures(t)
	rules := filepath.Join(dir, "rules.json")
	trees := filepath.Join(dir, "trees.json")
	metricsOut := filepath.Join(dir, "metrics.txt")
	run(t, "fit", "-m", metadata, "-i", data, "-o", rules, "--trees", trees,
		"-n", "3", "--seed", "7", "--holdout-fraction", "0.5", "--metrics-out", metricsOut)

	f, err := os.Open(rules)
	require.NoError(t, err)
	defer f.Close()
	rs, err := rulejson.Read(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "amount"}, rs.Features)
	assert.Equal(t, 3, rs.TopN)
	require.NotEmpty(t, rs.Rules)

	_, err = os.Stat(trees)
	assert.NoError(t, err)
	m, err := os.ReadFile(metricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(m), "fits_total 1")

	out := run(t, "rules", "-r", rules)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(rs.Rules))
	assert.True(t, strings.HasPrefix(lines[0], "*"))

	scored := filepath.Join(dir, "scored.csv")
	run(t, "score", "-r", rules, "-i", data, "-o", scored)
	s, err := os.ReadFile(scored)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(s)), "\n")
	assert.Equal(t, "age,amount,score,label", rows[0])
	assert.Len(t, rows, 61)
}

func TestFitStoreScore(t *testing.T) {
	dir, metadata, data := writeFixtures(t)
	storeURL := "bolt://" + filepath.Join(dir, "rules.bolt")
	run(t, "fit", "-m", metadata, "-i", data, "-o", filepath.Join(dir, "rules.json"), "--store", storeURL, "--name", "fraud", "--seed", "3")
	out := run(t, "rules", "--store", storeURL, "--name", "fraud")
	assert.NotEmpty(t, out)
}

func TestSplit(t *testing.T) {
	dir, metadata, data := writeFixtures(t)
	output := filepath.Join(dir, "train.csv")
	split := filepath.Join(dir, "holdout.csv")
	run(t, "split", "-m", metadata, "-i", data, "-o", output, "-s", split, "-p", "30", "--seed", "1")
	a, err := os.ReadFile(output)
	require.NoError(t, err)
	b, err := os.ReadFile(split)
	require.NoError(t, err)
	// headers plus every sample in one of the sets
	assert.Equal(t, 62, strings.Count(string(a), "\n")+strings.Count(string(b), "\n"))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "skoperules v0.1.0\n", run(t, "version"))
}

func TestBind(t *testing.T) {
	t.Setenv("SKOPE_NAME", "fraud")
	t.Setenv("SKOPE_TOP_N", "4")
	var name string
	var topN int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&name, "name", "", "")
	cmd.Flags().IntVar(&topN, "top-n", 0, "")
	require.NoError(t, cmd.ParseFlags([]string{"--top-n", "2"}))

	config := &rootCmdConfig{settings: viper.New(), registry: prometheus.NewRegistry()}
	require.NoError(t, config.bind(cmd))
	assert.Equal(t, "fraud", name)
	// command line flags take precedence
	assert.Equal(t, 2, topN)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&fitCmdConfig{}).Validate())
	assert.Error(t, (&fitCmdConfig{metadataInput: "m", storeURL: "mem://"}).Validate())
	assert.Error(t, (&fitCmdConfig{metadataInput: "m", name: "n"}).Validate())
	assert.NoError(t, (&fitCmdConfig{metadataInput: "m"}).Validate())

	assert.Error(t, (&scoreCmdConfig{}).Validate())
	assert.Error(t, (&scoreCmdConfig{rulesInput: "r", storeURL: "mem://"}).Validate())
	assert.Error(t, (&scoreCmdConfig{rulesInput: "r", topNSet: true}).Validate())
	assert.Error(t, (&scoreCmdConfig{rulesInput: "r", topN: -1, topNSet: true}).Validate())
	assert.NoError(t, (&scoreCmdConfig{rulesInput: "r", topN: 2, topNSet: true}).Validate())
	assert.NoError(t, (&scoreCmdConfig{rulesInput: "r"}).Validate())
	assert.Error(t, (&rulesCmdConfig{storeURL: "mem://"}).Validate())
	assert.NoError(t, (&rulesCmdConfig{storeURL: "mem://", name: "n"}).Validate())

	assert.Error(t, (&splitCmdConfig{metadataInput: "m", splitOutput: "s"}).Validate())
	assert.NoError(t, (&splitCmdConfig{metadataInput: "m", splitOutput: "s", splitProbability: 20}).Validate())
}
