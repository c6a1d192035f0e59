// Package equation builds the atom-mapped reaction equations understood by
// the INCA isotopomer modeling toolbox.
//
// An equation has the form
//
//	1.0*g6p_c (C1:a C2:b C3:c) -> 1.0*f6p_c (C1:a C2:b C3:c)
//
// with "<->" in place of "->" for reversible reactions. A metabolite whose
// atoms are only partially tracked is split into a tracked clause and an
// untracked remainder clause, open reactions get an exchange placeholder
// ("id.EX"), and orphaned atom maps used to complete the atom balance are
// injected as pseudo-metabolites.
package equation
