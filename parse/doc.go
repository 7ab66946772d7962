/*
Package parse implements the PARSE dialect: a pattern-matching engine that
runs a block of rules against a string, binary or array input.

Rules are values. Literals match themselves, nested blocks recurse, groups
are evaluated by a Host, and a reserved vocabulary of words (some, any,
copy, to, thru, not, change, ...) combines and modifies them. Alternatives
are separated by bars and tried left to right:

	parse "aabb" [some "a" some "b"]      ; true
	parse [1 "x" 2] [some [integer! | string!]]

A match either succeeds by advancing the input position, or fails and falls
back to the next alternative with the position restored. Parse reports
whether the rules consumed all of the input.

The input is shared with every nested rule, so mutation by remove, insert
and change is visible at once; the rule blocks are held for the duration and
refuse modification.
*/
package parse
