package jsonschema

import "github.com/kaptinlin/go-i18n"

// OutputFormat selects one of the four standard output shapes defined by the
// JSON Schema output specification.
type OutputFormat int

const (
	OutputFlag OutputFormat = iota
	OutputBasic
	OutputDetailed
	OutputHierarchical
)

// Format renders the evaluation result in the requested shape.
func (e *EvaluationResult) Format(format OutputFormat) any {
	switch format {
	case OutputFlag:
		return e.ToFlag()
	case OutputBasic:
		return e.ToList(false)
	case OutputDetailed:
		return e.ToDetailed()
	case OutputHierarchical:
		return e.ToList(true)
	default:
		return e.ToFlag()
	}
}

// ToDetailed converts the evaluation tree into the "detailed" output structure:
// a hierarchical tree like ToList(true), except that any node which carries no
// error or annotation of its own and has exactly one child is spliced out in
// favor of that child, directly attaching the child in the parent's place. This
// collapses the long chains of pass-through nodes ($ref indirection, allOf with
// a single branch, etc.) that a literal keyword-by-keyword tree would otherwise
// produce.
func (e *EvaluationResult) ToDetailed() *List {
	return e.buildDetailedNode(nil)
}

// ToLocalizeDetailed is ToDetailed with per-error localization.
func (e *EvaluationResult) ToLocalizeDetailed(localizer *i18n.Localizer) *List {
	return e.buildDetailedNode(localizer)
}

// buildDetailedNode recursively builds a detailed-format node, collapsing
// pass-through children as it goes.
func (e *EvaluationResult) buildDetailedNode(localizer *i18n.Localizer) *List {
	children := make([]*List, 0, len(e.Details))
	for _, detail := range e.Details {
		child := detail.buildDetailedNode(localizer)
		if child.hasOwnData() || len(child.Details) != 1 {
			children = append(children, child)
			continue
		}
		// Pass-through node: splice in its own single child instead of itself.
		children = append(children, &child.Details[0])
	}

	list := &List{
		Valid:            e.Valid,
		EvaluationPath:   e.EvaluationPath,
		SchemaLocation:   e.SchemaLocation,
		InstanceLocation: e.InstanceLocation,
		Annotations:      e.Annotations,
		Errors:           e.convertErrors(localizer),
	}
	for _, child := range children {
		list.Details = append(list.Details, *child)
	}
	return list
}

// hasOwnData reports whether a List node carries its own errors or annotations,
// as opposed to being a pure pass-through wrapper around a single child.
func (l *List) hasOwnData() bool {
	return len(l.Errors) > 0 || len(l.Annotations) > 0
}
