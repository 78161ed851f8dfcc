// Copyright 2025 Rowkit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

// DefaultCNFBudget bounds the clause count a CNF conversion may produce
// before it gives up with ErrComplexFilter.
const DefaultCNFBudget = 128

// conjuncts returns the top-level conjunction members of a CNF filter.
func conjuncts(f RowFilter) []RowFilter {
	if and, ok := f.(*AndFilter); ok {
		return and.Children
	}
	return []RowFilter{f}
}

func (f *AndFilter) CNF(budget int) (RowFilter, error) {
	clauses := make([]RowFilter, 0, len(f.Children))
	for _, c := range f.Children {
		cc, err := c.CNF(budget)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, conjuncts(cc)...)
		if len(clauses) > budget {
			return nil, ErrComplexFilter.New()
		}
	}
	return NewAnd(clauses...), nil
}

func (f *OrFilter) CNF(budget int) (RowFilter, error) {
	// Distribute or over and: the clause count is the product of the
	// children's clause counts, so check the budget before materializing.
	perChild := make([][]RowFilter, len(f.Children))
	total := 1
	for i, c := range f.Children {
		cc, err := c.CNF(budget)
		if err != nil {
			return nil, err
		}
		perChild[i] = conjuncts(cc)
		total *= len(perChild[i])
		if total > budget {
			return nil, ErrComplexFilter.New()
		}
	}

	var clauses []RowFilter
	indices := make([]int, len(perChild))
	for {
		pick := make([]RowFilter, len(perChild))
		for i, idx := range indices {
			pick[i] = perChild[i][idx]
		}
		clauses = append(clauses, NewOr(pick...))

		i := len(indices) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(perChild[i]) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return NewAnd(clauses...), nil
}

func (f *NotFilter) CNF(int) (RowFilter, error)              { return f, nil }
func (f *ColumnToArgFilter) CNF(int) (RowFilter, error)      { return f, nil }
func (f *ColumnToConstantFilter) CNF(int) (RowFilter, error) { return f, nil }
func (f *ColumnToColumnFilter) CNF(int) (RowFilter, error)   { return f, nil }
func (f *InFilter) CNF(int) (RowFilter, error)               { return f, nil }
func (f *OpaqueFilter) CNF(int) (RowFilter, error)           { return f, nil }

func (f *AndFilter) ReduceMore() RowFilter { return reduceComposite(f.Children, true) }
func (f *OrFilter) ReduceMore() RowFilter  { return reduceComposite(f.Children, false) }

func (f *NotFilter) ReduceMore() RowFilter              { return f }
func (f *ColumnToArgFilter) ReduceMore() RowFilter      { return f }
func (f *ColumnToConstantFilter) ReduceMore() RowFilter { return f }
func (f *ColumnToColumnFilter) ReduceMore() RowFilter   { return f }
func (f *InFilter) ReduceMore() RowFilter               { return f }
func (f *OpaqueFilter) ReduceMore() RowFilter           { return f }

// reduceComposite rebuilds a conjunction or disjunction applying idempotence,
// complement elimination, and absorption.
func reduceComposite(children []RowFilter, conjunction bool) RowFilter {
	reduced := make([]RowFilter, 0, len(children))
	for _, c := range children {
		reduced = append(reduced, c.ReduceMore())
	}

	// Idempotence: drop structural duplicates.
	kept := reduced[:0]
outer:
	for i, c := range reduced {
		for j := 0; j < i; j++ {
			if reduced[j].Equals(c) {
				continue outer
			}
		}
		kept = append(kept, c)
	}

	// Complement: x && !x is false, x || !x is true.
	for i, c := range kept {
		neg := c.Not()
		for j, o := range kept {
			if i == j {
				continue
			}
			if neg.Equals(o) {
				if conjunction {
					return FalseFilter
				}
				return TrueFilter
			}
		}
	}

	// Absorption: x && (x || y) keeps x; x || (x && y) keeps x.
	absorbed := make([]bool, len(kept))
	for i, c := range kept {
		inner, ok := compositeChildren(c, !conjunction)
		if !ok {
			continue
		}
		for j, o := range kept {
			if i == j || absorbed[j] {
				continue
			}
			for _, ic := range inner {
				if ic.Equals(o) {
					absorbed[i] = true
					break
				}
			}
			if absorbed[i] {
				break
			}
		}
	}
	final := kept[:0]
	for i, c := range kept {
		if !absorbed[i] {
			final = append(final, c)
		}
	}

	if conjunction {
		return NewAnd(final...)
	}
	return NewOr(final...)
}

// compositeChildren returns the members of a conjunction or disjunction.
func compositeChildren(f RowFilter, conjunction bool) ([]RowFilter, bool) {
	if conjunction {
		if and, ok := f.(*AndFilter); ok {
			return and.Children, true
		}
		return nil, false
	}
	if or, ok := f.(*OrFilter); ok {
		return or.Children, true
	}
	return nil, false
}

// isPushable reports whether a filter references only the given columns and
// contains no opaque terms.
func isPushable(f RowFilter, allColumns map[string]*Column) bool {
	switch f := f.(type) {
	case trueFilter, falseFilter:
		return true
	case *AndFilter:
		for _, c := range f.Children {
			if !isPushable(c, allColumns) {
				return false
			}
		}
		return true
	case *OrFilter:
		for _, c := range f.Children {
			if !isPushable(c, allColumns) {
				return false
			}
		}
		return true
	case *NotFilter:
		return false
	case *ColumnToArgFilter:
		return allColumns[f.Col.Name] != nil
	case *ColumnToConstantFilter:
		return allColumns[f.Col.Name] != nil
	case *ColumnToColumnFilter:
		return allColumns[f.Left.Name] != nil && allColumns[f.Right.Name] != nil
	case *InFilter:
		return allColumns[f.Col.Name] != nil
	default:
		return false
	}
}

func splitLeaf(f RowFilter, allColumns map[string]*Column) (RowFilter, RowFilter) {
	if isPushable(f, allColumns) {
		return f, TrueFilter
	}
	return TrueFilter, f
}

func (f *AndFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	var push, residual []RowFilter
	for _, c := range f.Children {
		if isPushable(c, allColumns) {
			push = append(push, c)
		} else {
			residual = append(residual, c)
		}
	}
	return NewAnd(push...), NewAnd(residual...)
}

func (f *OrFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *NotFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *ColumnToArgFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *ColumnToConstantFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *ColumnToColumnFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *InFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

func (f *OpaqueFilter) Split(allColumns map[string]*Column) (RowFilter, RowFilter) {
	return splitLeaf(f, allColumns)
}

// HasRepeatedNonPure reports whether normalization duplicated a non-pure
// opaque term: adopting such a normal form would evaluate a side-effecting
// expression more than once per row.
func HasRepeatedNonPure(f RowFilter) bool {
	counts := make(map[Expression]int)
	countOpaque(f, counts)
	for e, n := range counts {
		if n > 1 && !e.IsPure() {
			return true
		}
	}
	return false
}

func countOpaque(f RowFilter, counts map[Expression]int) {
	switch f := f.(type) {
	case *AndFilter:
		for _, c := range f.Children {
			countOpaque(c, counts)
		}
	case *OrFilter:
		for _, c := range f.Children {
			countOpaque(c, counts)
		}
	case *NotFilter:
		countOpaque(f.Child, counts)
	case *OpaqueFilter:
		counts[f.Expr]++
	}
}
