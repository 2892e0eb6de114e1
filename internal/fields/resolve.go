package fields

// Resolve returns the ordered groups visible for a selection given the current answers.
// An invalid service resolves to no groups.
func Resolve(sel Selection, cond Conditions) []Group {
	specs, ok := catalog[sel.Service]
	if !ok {
		return nil
	}
	groups := make([]Group, 0, len(specs))
	for _, gs := range specs {
		group := Group{Name: gs.name}
		for _, s := range gs.specs {
			if !s.visible(sel, cond) {
				continue
			}
			t := s.tier(sel)
			group.Fields = append(group.Fields, Field{
				Key:      s.key,
				Label:    s.label,
				Kind:     s.kind,
				Tier:     t,
				Options:  s.options,
				Required: s.required(t, sel, cond),
			})
		}
		if len(group.Fields) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// Allowed returns the keys a service keeps after sanitizing. Membership depends on the
// service, transport and modality only so switching incoterm or toggling answers never
// drops captured data.
func Allowed(sel Selection) map[Key]bool {
	allowed := map[Key]bool{KeyService: true}
	for _, gs := range catalog[sel.Service] {
		for _, s := range gs.specs {
			if s.scope(sel) {
				allowed[s.key] = true
			}
		}
	}
	return allowed
}

// IsRequired reports whether key must be answered for the selection and answers.
func IsRequired(sel Selection, cond Conditions, key Key) bool {
	for _, gs := range catalog[sel.Service] {
		for _, s := range gs.specs {
			if s.key != key || !s.visible(sel, cond) {
				continue
			}
			if s.required(s.tier(sel), sel, cond) {
				return true
			}
		}
	}
	return false
}

// Lookup returns the resolved field for key, if visible.
func Lookup(sel Selection, cond Conditions, key Key) (Field, bool) {
	for _, group := range Resolve(sel, cond) {
		for _, f := range group.Fields {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}

func (s entry) visible(sel Selection, cond Conditions) bool {
	if !s.scope(sel) {
		return false
	}
	return s.when == nil || s.when(sel, cond)
}

func (s entry) required(t Tier, sel Selection, cond Conditions) bool {
	switch t {
	case TierRequired:
		return true
	case TierRequiredConditional:
		return s.demand != nil && s.demand(sel, cond)
	default:
		return false
	}
}
