package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/schema"
	"google.golang.org/genai"
)

func TestFull(t *testing.T) {
	full := schema.Full()
	gt.Equal(t, full.Type, "object")
	gt.A(t, full.Required).Length(5)

	for _, s := range model.Sections() {
		prop, ok := full.Properties[string(s)]
		gt.True(t, ok)
		gt.V(t, prop.Description).NotEqual("")
	}

	gt.Equal(t, full.Properties["titles"].Type, "array")
	gt.Equal(t, full.Properties["titles"].Items.Type, "string")
	gt.Equal(t, *full.Properties["titles"].MinItems, 5)
	gt.Equal(t, *full.Properties["thumbnailPrompts"].MaxItems, 3)
}

func TestSection(t *testing.T) {
	full := schema.Full()

	for _, s := range model.Sections() {
		t.Run(string(s), func(t *testing.T) {
			sec, err := schema.Section(s)
			gt.NoError(t, err)
			gt.A(t, sec.Required).Length(1)
			gt.Equal(t, sec.Required[0], string(s))
			gt.V(t, len(sec.Properties)).Equal(1)

			// the wrapped field is the same definition as in the full contract
			gt.Equal(t, sec.Properties[string(s)].Type, full.Properties[string(s)].Type)
			gt.Equal(t, sec.Properties[string(s)].Description, full.Properties[string(s)].Description)
		})
	}

	_, err := schema.Section(model.Section("summary"))
	gt.Error(t, err)
}

func TestToGenai(t *testing.T) {
	converted, err := schema.ToGenai(schema.Full())
	gt.NoError(t, err)
	gt.Equal(t, converted.Type, genai.TypeObject)
	gt.A(t, converted.Required).Length(5)
	gt.Equal(t, converted.PropertyOrdering, []string{"script", "titles", "tags", "description", "thumbnailPrompts"})

	titles := converted.Properties["titles"]
	gt.Equal(t, titles.Type, genai.TypeArray)
	gt.Equal(t, titles.Items.Type, genai.TypeString)
	gt.Equal(t, *titles.MinItems, int64(5))
	gt.Equal(t, *titles.MaxItems, int64(5))

	tags := converted.Properties["tags"]
	gt.Equal(t, *tags.MinItems, int64(10))
	gt.Equal(t, *tags.MaxItems, int64(15))

	desc := converted.Properties["description"]
	gt.Equal(t, desc.Type, genai.TypeString)
	gt.Equal(t, *desc.MaxLength, int64(2000))

	sec, err := schema.Section(model.SectionTags)
	gt.NoError(t, err)
	convertedSec, err := schema.ToGenai(sec)
	gt.NoError(t, err)
	gt.Equal(t, convertedSec.PropertyOrdering, []string{"tags"})
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	gt.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestValidate(t *testing.T) {
	t.Run("conforming package", func(t *testing.T) {
		v := decode(t, `{
			"script": "Era uma vez...",
			"titles": ["1", "2", "3", "4", "5"],
			"tags": ["a","b","c","d","e","f","g","h","i","j"],
			"description": "desc",
			"thumbnailPrompts": ["x", "y", "z"]
		}`)
		gt.NoError(t, schema.Validate(schema.Full(), v))
	})

	t.Run("too few titles is a violation", func(t *testing.T) {
		v := decode(t, `{
			"script": "Era uma vez...",
			"titles": ["1", "2"],
			"tags": ["a","b","c","d","e","f","g","h","i","j"],
			"description": "desc",
			"thumbnailPrompts": ["x", "y", "z"]
		}`)
		err := schema.Validate(schema.Full(), v)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, schema.ErrContractViolation))
	})

	t.Run("missing field in section response", func(t *testing.T) {
		sec, err := schema.Section(model.SectionTags)
		gt.NoError(t, err)
		err = schema.Validate(sec, decode(t, `{"titles": ["1"]}`))
		gt.Error(t, err)
	})
}
