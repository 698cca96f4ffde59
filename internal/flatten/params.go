package flatten

import "strings"

// Param is one rendered input pin.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Params is an insertion-ordered pin-name to value mapping.
type Params []Param

// Set stores value under name. An existing name keeps its position and
// takes the new value.
func (p *Params) Set(name, value string) {
	for i := range *p {
		if (*p)[i].Name == name {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Name: name, Value: value})
}

// Get returns the value stored under name.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// String renders "k1=v1, k2=v2".
func (p Params) String() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(param.Name)
		b.WriteByte('=')
		b.WriteString(param.Value)
	}
	return b.String()
}
