// Package frontend parses and checks the line-oriented Surge declaration
// language the language server works with:
//
//	import app/util
//	pub type Name
//	pub const limit: Int
//	@target(llvm) pub fn fast(x: Int) -> Int
//	pub fn greet(name: String) -> String = util.join io.print
//
// Every line holds one declaration. A function body is the list of values
// it references; that is all the checker needs to resolve names across
// modules and report unused code.
package frontend
