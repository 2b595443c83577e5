// Package rubric loads and validates audit rubrics.
//
// A rubric names the criteria an audit scores, the artifact each criterion
// targets, and the success and failure patterns evaluators argue against.
// Rubrics load from TOML, YAML, or JSON files selected by extension, and a
// built-in default rubric covers general repository audits when no file is
// configured.
//
// Criteria tagged "security" (or whose id mentions security) participate in
// the security override during synthesis.
package rubric
