package runtime

import "fmt"

// FormValue overrides one submitted field. A non-empty Value is used
// literally; otherwise Text selects a <select> option by its visible text.
// Both are templates.
type FormValue struct {
	Name  string `mapstructure:"name" validate:"required"`
	Value string `mapstructure:"value"`
	Text  string `mapstructure:"text"`
}

// MergeForm starts from the form's seeded values and applies overrides in order.
// An override with neither Value nor Text leaves the seeded value in place.
// A text override naming a missing select or option is an error.
func MergeForm(form *Form, overrides []FormValue, src ValueSource) (FormValues, error) {
	values := form.Values.Clone()
	for _, o := range overrides {
		switch {
		case o.Value != "":
			values.Set(o.Name, Resolve(o.Value, src))
		case o.Text != "":
			text := Resolve(o.Text, src)
			v, err := form.SelectedValueByText(o.Name, text)
			if err != nil {
				return FormValues{}, fmt.Errorf("error resolving %q by text: %w", o.Name, err)
			}
			values.Set(o.Name, v)
		}
	}
	return values, nil
}
