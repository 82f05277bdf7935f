package xml

import (
	"fmt"
	"os"

	"github.com/BDNK1/netflow/runtime"
	"github.com/beevik/etree"
)

// Attribute names of the legacy format mapped onto node keys.
var attrAliases = map[string]string{
	"isMultipleValue":         "multiple",
	"expectedValue":           "expected",
	"expectedHttpStatusCodes": "expectedStatusCodes",
	"clientID":                "clientId",
}

const (
	elemTarget    = "target"
	elemOutput    = "output"
	elemFormValue = "formValue"
	elemOption    = "option"
)

// ScriptLoader loads scripts written as XML:
//
//	<interact defaultTarget="Main">
//	  <target name="Main">
//	    <get url="https://example.com/">
//	      <output name="title" xpath="//title" />
//	    </get>
//	    <if property="$(ShouldLogin)" value="true">
//	      <call target="Login" />
//	    </if>
//	  </target>
//	</interact>
type ScriptLoader struct{}

func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{}
}

func (l *ScriptLoader) Extensions() []string {
	return []string{"*.xml", "*.config"}
}

func (l *ScriptLoader) Load(filePath string) (runtime.Node, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading XML file: %w", err)
	}
	return Parse(data)
}

// Parse converts an XML script into a node tree.
func Parse(data []byte) (runtime.Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("error parsing XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("XML script has no root element")
	}

	node := runtime.Node{}
	if dt := root.SelectAttrValue("defaultTarget", ""); dt != "" {
		node["defaultTarget"] = dt
	}

	var targets []any
	for _, t := range root.SelectElements(elemTarget) {
		var actions []any
		for _, child := range t.ChildElements() {
			action, err := actionNode(child)
			if err != nil {
				return nil, fmt.Errorf("target %q: %w", t.SelectAttrValue("name", ""), err)
			}
			actions = append(actions, action)
		}
		targets = append(targets, map[string]any{
			"name":    t.SelectAttrValue("name", ""),
			"actions": actions,
		})
	}
	node["targets"] = targets
	return node, nil
}

// actionNode maps <kind attr="..."> onto {kind: {attr: ...}}. output and
// formValue children become lists, option children a map, and any other child
// element the nested action of a branch.
func actionNode(el *etree.Element) (map[string]any, error) {
	body := attrMap(el)

	var (
		outputs []any
		values  []any
		options map[string]any
	)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case elemOutput:
			outputs = append(outputs, attrMap(child))
		case elemFormValue:
			values = append(values, attrMap(child))
		case elemOption:
			if options == nil {
				options = map[string]any{}
			}
			options[child.SelectAttrValue("name", "")] = child.SelectAttrValue("value", "")
		default:
			if _, exists := body["action"]; exists {
				return nil, fmt.Errorf("<%s> has more than one nested action", el.Tag)
			}
			nested, err := actionNode(child)
			if err != nil {
				return nil, err
			}
			body["action"] = nested
		}
	}

	if outputs != nil {
		body["outputs"] = outputs
	}
	if values != nil {
		body["values"] = values
	}
	if options != nil {
		body["options"] = options
	}
	return map[string]any{el.Tag: body}, nil
}

func attrMap(el *etree.Element) map[string]any {
	m := make(map[string]any, len(el.Attr))
	for _, a := range el.Attr {
		key := a.Key
		if alias, ok := attrAliases[key]; ok {
			key = alias
		}
		m[key] = a.Value
	}
	return m
}
