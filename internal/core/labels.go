// Package core defines core types.
package core

// Labels represents key-value metadata attached to decoded headers and log entries.
type Labels map[string]string

// Label naming constants following {protocol}.{field} convention. VLAN labels
// are prefixed with "vlan." for single tags and "vlan.outer." / "vlan.inner."
// for double tags.
const (
	LabelVLANID           = "id"
	LabelVLANPriority     = "pcp"
	LabelVLANDropEligible = "dei"
	LabelVLANEtherType    = "ether_type"

	LabelEthSrc       = "eth.src"
	LabelEthDst       = "eth.dst"
	LabelEthEtherType = "eth.ether_type"
	LabelEthTagging   = "eth.tagging" // untagged | single | double
)

// Fields converts labels into a structured logging field map.
func (l Labels) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(l))
	for k, v := range l {
		fields[k] = v
	}
	return fields
}
