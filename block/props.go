package block

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// PropsPrefix marks markup attributes carrying inline properties.
const PropsPrefix = "data-props-"

// Property is a name/value annotation of a block or of a span of its markup.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Props is an ordered set of properties keyed by name.
type Props []Property

func (p Props) Get(name string) (string, bool) {
	for _, v := range p {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Set replaces value in place or appends new property.
func (p *Props) Set(name, value string) {
	for i, v := range *p {
		if v.Name == name {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Property{Name: name, Value: value})
}

func (p *Props) Delete(name string) {
	*p = slices.DeleteFunc(*p, func(v Property) bool { return v.Name == name })
}

func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

func (p Props) Equal(other Props) bool {
	return slices.Equal(p, other)
}

// Map returns properties as a map, used for debug output.
func (p Props) Map() map[string]string {
	res := make(map[string]string, len(p))
	for _, v := range p {
		res[v.Name] = v.Value
	}
	return res
}

// Attrs encodes properties as markup attributes.
func (p Props) Attrs() []html.Attribute {
	res := make([]html.Attribute, 0, len(p))
	for _, v := range p {
		res = append(res, html.Attribute{Key: PropsAttrName(v.Name), Val: v.Value})
	}
	return res
}

// PropsAttrName returns attribute name carrying property name.
func PropsAttrName(name string) string {
	return PropsPrefix + name
}

// IsPropsAttr reports whether attribute belongs to inline property channel.
func IsPropsAttr(key string) bool {
	return strings.HasPrefix(key, PropsPrefix) && len(key) > len(PropsPrefix)
}

// PropsFromAttrs decodes inline properties from attributes in their order.
func PropsFromAttrs(attrs []html.Attribute) Props {
	var res Props
	for _, a := range attrs {
		if a.Namespace == "" && IsPropsAttr(a.Key) {
			res.Set(strings.TrimPrefix(a.Key, PropsPrefix), a.Val)
		}
	}
	return res
}

// ApplyProps replaces inline property attributes of n with p.
func ApplyProps(n *html.Node, p Props) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && IsPropsAttr(a.Key)
	})
	n.Attr = append(n.Attr, p.Attrs()...)
}
