package extension

// Find returns the children of the first top-level element in namespace.
// It returns nil when no such element exists.
func Find(tree []*Element, namespace string) []*Element {
	for _, e := range tree {
		if e != nil && e.Namespace == namespace {
			return e.Children
		}
	}
	return nil
}

// FindAlfresco returns the children of the Alfresco envelope, or nil.
// An envelope delivered without namespace is recognised by its name.
func FindAlfresco(tree []*Element) []*Element {
	if children := Find(tree, AlfrescoNamespace); children != nil {
		return children
	}
	if e := FindElement(tree, AlfrescoNamespace, AspectsEnvelope); e != nil {
		return e.Children
	}
	return nil
}

// FindElement returns the last element named name in namespace.
//
// Some bindings (browser binding in particular) deliver elements without a
// namespace, so an element with a blank namespace matches by name alone.
func FindElement(tree []*Element, namespace, name string) *Element {
	var found *Element
	for _, e := range tree {
		if e == nil || e.Name != name {
			continue
		}
		if e.Namespace == "" || e.Namespace == namespace {
			found = e
		}
	}
	return found
}

// Named returns every element of tree with the given name, in order.
func Named(tree []*Element, name string) []*Element {
	var out []*Element
	for _, e := range tree {
		if e != nil && e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Values returns the scalar values of every element named name, in order.
func Values(tree []*Element, name string) []string {
	var out []string
	for _, e := range Named(tree, name) {
		out = append(out, e.Value)
	}
	return out
}

// ReadMandatoryAspects extracts the mandatory aspect ids declared in a type
// definition's extensions. It returns an empty, non-nil slice when none are
// declared.
func ReadMandatoryAspects(tree []*Element) []string {
	container := FindElement(tree, AlfrescoNamespace, MandatoryAspects)
	if container == nil {
		return []string{}
	}
	out := make([]string, 0, len(container.Children))
	for _, c := range container.Children {
		if c == nil {
			continue
		}
		out = append(out, c.Value)
	}
	return out
}

// MandatoryAspectsElement builds the mandatoryAspects container for ids.
func MandatoryAspectsElement(ids []string) *Element {
	children := make([]*Element, 0, len(ids))
	for _, id := range ids {
		children = append(children, New(AlfrescoNamespace, MandatoryAspect, nil, id))
	}
	return NewContainer(AlfrescoNamespace, MandatoryAspects, nil, children...)
}
