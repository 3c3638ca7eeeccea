// Package errors turns scrumsim failures into messages with suggestions
// for the command line.
//
// CLIError carries a message, optional details and a suggestion, and
// unwraps to the original error. The Wrap functions recognise domain
// errors (missing scripts, rejected gateway or board tokens, unreachable
// services, bad settings) and return a CLIError; other errors pass through
// unchanged. An ErrorMessenger can replace the default wording.
//
//	doc, err := loader.Load(name)
//	if err != nil {
//	    return errors.WrapScriptError(err, name)
//	}
package errors
