/*
Package yaml provides methods to parse feature metadata from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/datajms/skope-rules/feature"
)

/*
Metadata describes the columns of a feature matrix: the ordered names of
its features and the name of the label column.
*/
type Metadata struct {
	Label    string   `yaml:"label"`
	Features []string `yaml:"features"`
}

/*
ReadMetadata takes a slice of bytes with a metadata specification in YML and
returns the Metadata parsed from it or an error.
The YML is expected to be an object containing a label property with the name
of the label column and a features property with the list of feature names
in the order they take as columns of the feature matrix:

	label: class
	features:
	  - age
	  - amount
*/
func ReadMetadata(md []byte) (*Metadata, error) {
	metadata := &Metadata{}
	err := yaml.Unmarshal(md, metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing yml metadata: %v", err)
	}
	if len(metadata.Features) == 0 {
		return nil, fmt.Errorf("metadata has no feature information")
	}
	if metadata.Label == "" {
		return nil, fmt.Errorf("metadata has no label information")
	}
	idx, err := feature.Index(metadata.Features)
	if err != nil {
		return nil, fmt.Errorf("parsing yml metadata: %v", err)
	}
	if _, ok := idx[metadata.Label]; ok {
		return nil, fmt.Errorf("label %s cannot also be a feature", metadata.Label)
	}
	return metadata, nil
}

/*
ReadMetadataFromFile takes a filepath string, reads its contents and uses
ReadMetadata to parse it and return the parsed Metadata or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadMetadataFromFile(filepath string) (*Metadata, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading metadata yml file %s: %v", filepath, err)
	}
	metadata, err := ReadMetadata(md)
	if err != nil {
		err = fmt.Errorf("parsing metadata yml file %s: %v", filepath, err)
	}
	return metadata, err
}
