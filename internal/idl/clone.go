package idl

import "maps"

// Clone returns a deep copy of the enum.
func (e *EnumInfo) Clone() *EnumInfo {
	c := *e
	c.Members = maps.Clone(e.Members)
	if c.Members == nil {
		c.Members = map[string]int64{}
	}
	return &c
}

// Clone returns a deep copy of the packet and its fields.
func (p *PacketInfo) Clone() *PacketInfo {
	c := *p
	c.Fields = make([]Field, len(p.Fields))
	for i, f := range p.Fields {
		if f.DefaultValue != nil {
			v := *f.DefaultValue
			f.DefaultValue = &v
		}
		c.Fields[i] = f
	}
	return &c
}

// CloneEnums deep-copies an enum table.
func CloneEnums(in map[string]*EnumInfo) map[string]*EnumInfo {
	out := make(map[string]*EnumInfo, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// ClonePackets deep-copies a packet list, preserving order.
func ClonePackets(in []*PacketInfo) []*PacketInfo {
	out := make([]*PacketInfo, 0, len(in))
	for _, p := range in {
		out = append(out, p.Clone())
	}
	return out
}
