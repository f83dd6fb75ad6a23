package actions

import "github.com/beevik/etree"

// Tree search helpers shared across the extract actions. They operate
// on the parsed packet element, whose shape is
//
//	<dm_log_packet>
//	    <pair key="type_id">LTE_...</pair>
//	    <pair key="timestamp">2020-01-01 00:00:00.000000</pair>
//	    ...
//	</dm_log_packet>

// PacketType returns the packet's type_id pair value, or "".
func PacketType(tree *etree.Element) string {
	for _, pair := range tree.ChildElements() {
		if pair.Tag == "pair" && pair.SelectAttrValue("key", "") == "type_id" {
			return pair.Text()
		}
	}
	return ""
}

// IsPacketHavingType reports whether the packet's type_id equals
// typeID.
func IsPacketHavingType(tree *etree.Element, typeID string) bool {
	return PacketType(tree) == typeID
}

// PacketTimestamp returns the packet's timestamp pair value, or
// "timestamp N/A" when the pair is absent.
func PacketTimestamp(tree *etree.Element) string {
	for _, pair := range tree.ChildElements() {
		if pair.Tag == "pair" && pair.SelectAttrValue("key", "") == "timestamp" {
			return pair.Text()
		}
	}
	return "timestamp N/A"
}

// HasAttribute reports whether el itself carries the attribute
// name=value.
func HasAttribute(el *etree.Element, name, value string) bool {
	for _, a := range el.Attr {
		if a.Key == name && a.Value == value {
			return true
		}
	}
	return false
}

// LocateSubtreeWithAttribute returns every element in the tree, root
// included, that carries the attribute name=value. Returned elements
// may be nested within each other.
func LocateSubtreeWithAttribute(tree *etree.Element, name, value string) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if HasAttribute(el, name, value) {
			out = append(out, el)
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(tree)
	return out
}

// LocateDisjointSubtreeWithAttribute is like
// LocateSubtreeWithAttribute but does not descend into a matching
// element, so no returned element is a descendant of another.
func LocateDisjointSubtreeWithAttribute(tree *etree.Element, name, value string) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if HasAttribute(el, name, value) {
			out = append(out, el)
			return
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(tree)
	return out
}

// IsSubtreeWithAttributePresent reports whether any element in the
// tree carries the attribute name=value.
func IsSubtreeWithAttributePresent(tree *etree.Element, name, value string) bool {
	if HasAttribute(tree, name, value) {
		return true
	}
	for _, c := range tree.ChildElements() {
		if IsSubtreeWithAttributePresent(c, name, value) {
			return true
		}
	}
	return false
}

// DictPairs returns the children of el's <dict> child, or nil. Used
// on elements carrying type="dict".
func DictPairs(el *etree.Element) []*etree.Element {
	d := el.SelectElement("dict")
	if d == nil {
		return nil
	}
	return d.ChildElements()
}

// ListItems returns the children of el's <list> child, or nil. Used
// on elements carrying type="list".
func ListItems(el *etree.Element) []*etree.Element {
	l := el.SelectElement("list")
	if l == nil {
		return nil
	}
	return l.ChildElements()
}
