package json

import (
	"fmt"
	"os"

	"github.com/BDNK1/netflow/runtime"
	"github.com/Jeffail/gabs/v2"
)

// ScriptLoader loads scripts from JSON files.
type ScriptLoader struct{}

func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{}
}

func (l *ScriptLoader) Extensions() []string {
	return []string{"*.json"}
}

func (l *ScriptLoader) Load(filePath string) (runtime.Node, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON script document. The top level must be an object and
// "targets", when present, an array.
func Parse(data []byte) (runtime.Node, error) {
	container, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	root, ok := container.Data().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("script must be a JSON object, got %T", container.Data())
	}

	if container.Exists("targets") {
		if _, ok := container.Path("targets").Data().([]any); !ok {
			return nil, fmt.Errorf("\"targets\" must be an array")
		}
	}
	return root, nil
}
