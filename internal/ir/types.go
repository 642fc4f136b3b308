package ir

// AttributeType is the declared type of a catalog attribute.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeInt     AttributeType = "int"
	TypeBool    AttributeType = "bool"
	TypeArray   AttributeType = "array"
	TypeUnknown AttributeType = ""
)

// EntityTypeDef declares an entity type and its attributes.
type EntityTypeDef struct {
	Name       string                   `json:"name"`
	SuperTypes []string                 `json:"super_types,omitempty"`
	Attributes map[string]AttributeType `json:"attributes"`
}

// ClassificationDef declares a classification (trait) type. Its attribute
// names make up the trait attribute domain the compiler consults.
type ClassificationDef struct {
	Name       string                   `json:"name"`
	Attributes map[string]AttributeType `json:"attributes"`
}

// Entity is a catalog instance: a typed bag of attributes plus the
// classifications and glossary terms attached to it.
type Entity struct {
	GUID            string           `json:"guid"`
	TypeName        string           `json:"type_name"`
	Attributes      IRObject         `json:"attributes"`
	Classifications []Classification `json:"classifications,omitempty"`
	Terms           []string         `json:"terms,omitempty"`
}

// Classification is a trait attached to one entity, with its own
// attribute values.
type Classification struct {
	TypeName   string   `json:"type_name"`
	Attributes IRObject `json:"attributes,omitempty"`
}

// HasClassification reports whether name is attached to the entity.
func (e Entity) HasClassification(name string) bool {
	for _, c := range e.Classifications {
		if c.TypeName == name {
			return true
		}
	}
	return false
}
