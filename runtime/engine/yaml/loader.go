package yaml

import (
	"fmt"
	"os"

	"github.com/BDNK1/netflow/runtime"
	goyaml "gopkg.in/yaml.v3"
)

// ScriptLoader loads scripts from YAML files.
type ScriptLoader struct{}

func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{}
}

func (l *ScriptLoader) Extensions() []string {
	return []string{"*.yaml", "*.yml"}
}

func (l *ScriptLoader) Load(filePath string) (runtime.Node, error) {
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	return Parse(yamlFile)
}

// Parse decodes a YAML script document into a node tree.
func Parse(data []byte) (runtime.Node, error) {
	var node runtime.Node
	if err := goyaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("error unmarshalling YAML: %w", err)
	}
	if node == nil {
		node = runtime.Node{}
	}
	return node, nil
}
