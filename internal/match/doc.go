// Package match provides name normalization, Levenshtein distance and
// "did you mean" suggestions for sheet and column names.
//
// Template sheet names come from hand-edited workbooks ("Effort & Site
// Conditions", "Block ID/SU ID"), so a rule document naming a sheet that no
// schema entry declares is usually a typo. Suggest ranks the declared names
// closest to the unknown one.
package match
