// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/events"
)

// parseExpression handles arguments which are a single expression.  Empty
// arguments are left to the declared Arguments check.
func parseExpression(ctx *Context, args string, at int) bool {
	if strings.TrimSpace(args) == "" {
		return false
	}
	ctx.Expression(args, at)
	return true
}

var rangePattern = regexp.MustCompile(`\brange\b`)

// parseFor handles the three forms of <<for>>: a conditional, a
// three-part loop and a range loop.
func parseFor(ctx *Context, args string, at int) bool {
	if strings.TrimSpace(args) == "" {
		return true
	}
	if loc := rangePattern.FindStringIndex(args); loc != nil && !strings.Contains(args, ";") {
		ctx.Expression(args[:loc[0]], at)
		ctx.Token("range", at+loc[0], events.TokenKeyword, 0)
		ctx.Expression(args[loc[1]:], at+loc[1])
		return true
	}
	ctx.Expression(args, at)
	return true
}

// lastChild returns a ChildParser which reports any child named after
// which follows a child named last.
func lastChild(last, after string) ChildParser {
	return func(ctx *Context, c *Container) {
		seen := false
		for _, child := range c.Children {
			switch {
			case child.Name == last:
				seen = true
			case seen && child.Name == after:
				ctx.Error(child.At, child.End, fmt.Sprintf("<<%s>> cannot follow <<%s>>", after, last))
			}
		}
	}
}

// scriptBody reports the body of <<script>> as JavaScript.
func scriptBody(ctx *Context, c *Container) {
	ctx.Embedded("javascript", ctx.Source(c.OpenEnd, c.CloseAt), c.OpenEnd)
	ctx.Blank(c.OpenEnd, c.CloseAt)
}

const transition = "['transition'|'t8n']"

// BuiltinMacros returns the SugarCube 2 macro library.
func BuiltinMacros() *Registry {
	return NewRegistry(
		// Variables
		&MacroInfo{Name: "capture", Container: true, Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Captures story $variables and temporary _variables, creating localized versions of their values within the macro body."},
		&MacroInfo{Name: "set", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Sets story $variables and temporary _variables based on the given expression."},
		&MacroInfo{Name: "unset", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Unsets story $variables and temporary _variables."},
		&MacroInfo{Name: "remember", Parse: parseExpression, Arguments: Unvalidated(true), Deprecated: "2.29.0", Removed: "2.37.0",
			Description: "Sets story $variables and saves them to persistent storage."},
		&MacroInfo{Name: "forget", Arguments: Schema("var"), Deprecated: "2.29.0", Removed: "2.37.0",
			Description: "Removes a story $variable from persistent storage."},

		// Scripting
		&MacroInfo{Name: "run", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Silently executes the given expression."},
		&MacroInfo{Name: "script", Container: true, Arguments: Schema("[text]"), ParseChildren: scriptBody,
			Description: "Silently executes its contents as JavaScript code."},

		// Display
		&MacroInfo{Name: "do", Container: true, Arguments: Schema("['tag' text] ['element' text]"), Since: "2.37.0",
			Description: "Displays its contents.  Listens for <<redo>> commands to refresh its contents."},
		&MacroInfo{Name: "include", Arguments: Schema("passage|linkNoSetter [text]"),
			Description: "Outputs the contents of the passage with the given name, optionally wrapping it within an HTML element."},
		&MacroInfo{Name: "display", Arguments: Schema("passage|linkNoSetter [text]"), Deprecated: "2.0.0",
			Description: "Outputs the contents of the passage with the given name."},
		&MacroInfo{Name: "nobr", Container: true, Arguments: Unvalidated(false),
			Description: "Executes its contents and outputs the result, after removing leading/trailing newlines and replacing all remaining sequences of newlines with single spaces."},
		&MacroInfo{Name: "print", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Outputs the result of the given expression."},
		&MacroInfo{Name: "=", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Outputs the result of the given expression.  A shortcut for <<print>>."},
		&MacroInfo{Name: "-", Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Outputs the result of the given expression after encoding HTML special characters."},
		&MacroInfo{Name: "redo", Arguments: Schema("[text]"), Since: "2.37.0",
			Description: "Causes <<do>> macros to refresh their contents."},
		&MacroInfo{Name: "silent", Container: true, Arguments: Unvalidated(false), Since: "2.37.0",
			Description: "Causes any output generated within its body to be discarded."},
		&MacroInfo{Name: "silently", Container: true, Arguments: Unvalidated(false), Deprecated: "2.37.0",
			Description: "Causes any output generated within its body to be discarded."},
		&MacroInfo{Name: "type", Container: true, Since: "2.32.0",
			Arguments:   Schema("text ['start' text] ['class' text] ['element' text] ['id' text] ['keep'|'none'] ['skipkey' text]"),
			Description: "Outputs its contents a character at a time, mimicking a teletype/typewriter."},

		// Control
		&MacroInfo{Name: "if", Container: true, Parse: parseExpression, Arguments: Unvalidated(true), ParseChildren: lastChild("else", "elseif"),
			Description: "Executes its contents if the given conditional expression evaluates to true."},
		&MacroInfo{Name: "elseif", Parents: []ParentRef{{Name: "if"}}, Parse: parseExpression, Arguments: Unvalidated(true),
			Description: "Executes its contents if the given conditional expression evaluates to true."},
		&MacroInfo{Name: "else", Parents: []ParentRef{{Name: "if", Max: 1}}, Arguments: Unvalidated(false),
			Description: "Executes its contents if none of the preceding conditions were true."},
		&MacroInfo{Name: "for", Container: true, Parse: parseFor,
			Description: "Repeatedly executes its contents."},
		&MacroInfo{Name: "break", Parents: []ParentRef{{Name: "for"}}, Arguments: Unvalidated(false),
			Description: "Terminates the execution of the current <<for>>."},
		&MacroInfo{Name: "continue", Parents: []ParentRef{{Name: "for"}}, Arguments: Unvalidated(false),
			Description: "Skips the execution of the current iteration of the current <<for>>."},
		&MacroInfo{Name: "switch", Container: true, Parse: parseExpression, Arguments: Unvalidated(true), ParseChildren: lastChild("default", "case"),
			Description: "Evaluates the given expression and compares it to the value(s) within its <<case>> children."},
		&MacroInfo{Name: "case", Parents: []ParentRef{{Name: "switch"}}, Arguments: Schema("...expression"),
			Description: "Executes its contents if one of its values matches the <<switch>> expression."},
		&MacroInfo{Name: "default", Parents: []ParentRef{{Name: "switch", Max: 1}}, Arguments: Unvalidated(false),
			Description: "Executes its contents if no <<case>> matched."},

		// Interactive
		&MacroInfo{Name: "button", Container: true, Arguments: Schema("link", "text [passage]"),
			Description: "Creates a button that silently executes its contents when clicked, optionally forwarding the player to another passage."},
		&MacroInfo{Name: "link", Container: true, Arguments: Schema("link", "text [passage]"),
			Description: "Creates a link that silently executes its contents when clicked, optionally forwarding the player to another passage."},
		&MacroInfo{Name: "linkappend", Container: true, Arguments: Schema("text " + transition),
			Description: "Creates a single-use link that deactivates itself and appends its contents to its link text when clicked."},
		&MacroInfo{Name: "linkprepend", Container: true, Arguments: Schema("text " + transition),
			Description: "Creates a single-use link that deactivates itself and prepends its contents to its link text when clicked."},
		&MacroInfo{Name: "linkreplace", Container: true, Arguments: Schema("text " + transition),
			Description: "Creates a single-use link that deactivates itself and replaces its link text with its contents when clicked."},
		&MacroInfo{Name: "checkbox", Arguments: Schema("receiver text text ['autocheck'|'checked']"),
			Description: "Creates a checkbox, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "cycle", Container: true, Arguments: Schema("receiver ['autoselect'] ['once']"), Since: "2.29.0",
			Description: "Creates a cycling link, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "listbox", Container: true, Arguments: Schema("receiver ['autoselect']"), Since: "2.26.0",
			Description: "Creates a listbox, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "option", Parents: []ParentRef{{Name: "cycle"}, {Name: "listbox"}}, Arguments: Schema("text [text] ['selected']"),
			Description: "Creates an option for its parent <<cycle>> or <<listbox>>."},
		&MacroInfo{Name: "optionsfrom", Parents: []ParentRef{{Name: "cycle"}, {Name: "listbox"}}, Arguments: Schema("expression"),
			Description: "Creates options for its parent <<cycle>> or <<listbox>> from the given collection."},
		&MacroInfo{Name: "numberbox", Arguments: Schema("receiver number [passage] ['autofocus']"), Since: "2.32.0",
			Description: "Creates a number input box, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "radiobutton", Arguments: Schema("receiver text ['autocheck'|'checked']"),
			Description: "Creates a radio button, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "textarea", Arguments: Schema("receiver text ['autofocus']"),
			Description: "Creates a multiline text input block, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "textbox", Arguments: Schema("receiver text [passage] ['autofocus']"),
			Description: "Creates a text input box, used to modify the value of the variable with the given name."},
		&MacroInfo{Name: "actions", Arguments: Unvalidated(true), Deprecated: "2.8.0", Removed: "2.37.0",
			Description: "Creates a list of single-use passage links."},
		&MacroInfo{Name: "choice", Arguments: Unvalidated(true), Deprecated: "2.8.0", Removed: "2.37.0",
			Description: "Creates a single-use passage link."},
		&MacroInfo{Name: "click", Container: true, Arguments: Unvalidated(true), Deprecated: "2.8.0", Removed: "2.37.0",
			Description: "Creates a link that silently executes its contents when clicked."},

		// Links
		&MacroInfo{Name: "back", Arguments: Schema("linkNoSetter", "[text]"),
			Description: "Creates a link that undoes past moments within the story history."},
		&MacroInfo{Name: "return", Arguments: Schema("linkNoSetter", "[text]"),
			Description: "Creates a link that navigates forward to a previously visited passage."},

		// DOM
		&MacroInfo{Name: "addclass", Arguments: Schema("text text"),
			Description: "Adds classes to the selected element(s)."},
		&MacroInfo{Name: "removeclass", Arguments: Schema("text [text]"),
			Description: "Removes classes from the selected element(s)."},
		&MacroInfo{Name: "toggleclass", Arguments: Schema("text text"),
			Description: "Toggles classes on the selected element(s)."},
		&MacroInfo{Name: "append", Container: true, Arguments: Schema("text " + transition),
			Description: "Executes its contents and appends the output to the contents of the selected element(s)."},
		&MacroInfo{Name: "prepend", Container: true, Arguments: Schema("text " + transition),
			Description: "Executes its contents and prepends the output to the contents of the selected element(s)."},
		&MacroInfo{Name: "replace", Container: true, Arguments: Schema("text " + transition),
			Description: "Executes its contents and replaces the contents of the selected element(s) with the output."},
		&MacroInfo{Name: "copy", Arguments: Schema("text"),
			Description: "Outputs a copy of the contents of the selected element(s)."},
		&MacroInfo{Name: "remove", Arguments: Schema("text"),
			Description: "Removes the selected element(s)."},

		// Audio
		&MacroInfo{Name: "audio", Arguments: Schema("text ...text"),
			Description: "Controls the playback of audio tracks."},
		&MacroInfo{Name: "cacheaudio", Arguments: Schema("text ...text"),
			Description: "Caches an audio track for use by the other audio macros."},
		&MacroInfo{Name: "createaudiogroup", Container: true, Arguments: Schema("text"),
			Description: "Collects tracks into a group via its <<track>> children."},
		&MacroInfo{Name: "createplaylist", Container: true, Arguments: Schema("text"),
			Description: "Collects tracks into a playlist via its <<track>> children."},
		&MacroInfo{Name: "track", Parents: []ParentRef{{Name: "createaudiogroup"}, {Name: "createplaylist"}}, Arguments: Schema("text ['own']"),
			Description: "Adds a track to its parent group or playlist."},
		&MacroInfo{Name: "masteraudio", Arguments: Schema("...text"),
			Description: "Controls the master audio settings."},
		&MacroInfo{Name: "playlist", Arguments: Schema("text ...text"),
			Description: "Controls the playback of the playlist."},
		&MacroInfo{Name: "removeaudiogroup", Arguments: Schema("text"),
			Description: "Removes the audio group with the given ID."},
		&MacroInfo{Name: "removeplaylist", Arguments: Schema("text"),
			Description: "Removes the playlist with the given ID."},
		&MacroInfo{Name: "waitforaudio", Arguments: Unvalidated(false),
			Description: "Displays the loading screen until all currently registered audio has either loaded or failed to load."},

		// Miscellaneous
		&MacroInfo{Name: "done", Container: true, Arguments: Unvalidated(false), Since: "2.35.0",
			Description: "Silently executes its contents when the incoming passage is done rendering."},
		&MacroInfo{Name: "goto", Arguments: Schema("passage|linkNoSetter"),
			Description: "Immediately forwards the player to the passage with the given name."},
		&MacroInfo{Name: "repeat", Container: true, Arguments: Schema("text " + transition),
			Description: "Repeatedly executes its contents after the given delay."},
		&MacroInfo{Name: "stop", Parents: []ParentRef{{Name: "repeat"}}, Arguments: Unvalidated(false),
			Description: "Stops the repeated execution of the current <<repeat>>."},
		&MacroInfo{Name: "timed", Container: true, Arguments: Schema("text " + transition),
			Description: "Executes its contents after the given delay."},
		&MacroInfo{Name: "next", Parents: []ParentRef{{Name: "timed"}}, Arguments: Schema("[text]"),
			Description: "Used within <<timed>> to add additional timed sections."},
		&MacroInfo{Name: "widget", Container: true, Arguments: Schema("text ['container']"),
			Description: "Creates a new widget macro with the given name."},
	)
}
