package tabular

import "github.com/mesh-intelligence/tabledesk/pkg/types"

// ResolveLinks returns a copy of t with every linked column replaced by the
// description of the row it references, or written to the rule's target
// column when one is set. Rules for other sheets and rules whose column t
// lacks are skipped. The result is for display; writing it back would
// replace identifiers with text.
func (r Resolver) ResolveLinks(t *types.Table, rules []types.LinkRule, sheets map[string]*types.Table) *types.Table {
	out := t.Clone()
	for _, rule := range rules {
		if rule.Sheet != "" && rule.Sheet != t.Name {
			continue
		}
		if !out.Has(rule.Column) {
			continue
		}
		target := rule.Column
		if rule.Target != "" {
			target = rule.Target
			out.AddColumn(target)
		}
		for row := range out.Rows {
			id := out.Cell(row, rule.Column).String()
			out.Set(row, target, types.Text(r.LookupLink(id, rule.Ref, sheets)))
		}
	}
	return out
}

// Describe fills the target column of every rule that has one from the
// record's reference column. Rules without a target are ignored.
func (r Resolver) Describe(rec types.Record, rules []types.LinkRule, sheets map[string]*types.Table) types.Record {
	out := make(types.Record, len(rec)+len(rules))
	for k, v := range rec {
		out[k] = v
	}
	for _, rule := range rules {
		if rule.Target == "" {
			continue
		}
		id := rec.Get(rule.Column).String()
		out[rule.Target] = types.Text(r.LookupLink(id, rule.Ref, sheets))
	}
	return out
}
