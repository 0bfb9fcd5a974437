package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexBadNumber                Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexTokenTooLong             Code = 1004

	// syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectExpression   Code = 2003
	SynExpectType         Code = 2004
	SynExpectIdentifier   Code = 2005
	SynUnclosedParen      Code = 2006
	SynUnclosedBrace      Code = 2007
	SynUnclosedBracket    Code = 2008
	SynBadDeclarator      Code = 2009
	SynBadSpecifiers      Code = 2010
	SynExpectColon        Code = 2011
	SynBadArraySize       Code = 2012
	SynUnexpectedTopLevel Code = 2013

	// lowering: name resolution, typing, control flow
	LowInfo                   Code = 3000
	LowUndeclaredIdentifier   Code = 3001
	LowRedeclaration          Code = 3002
	LowConflictingTypes       Code = 3003
	LowConflictingLinkage     Code = 3004
	LowRedefinition           Code = 3005
	LowNotAnLvalue            Code = 3006
	LowInvalidOperands        Code = 3007
	LowTypeMismatch           Code = 3008
	LowBreakOutsideLoop       Code = 3009
	LowContinueOutsideLoop    Code = 3010
	LowUndefinedLabel         Code = 3011
	LowDuplicateLabel         Code = 3012
	LowNonConstantCase        Code = 3013
	LowDuplicateCase          Code = 3014
	LowCaseOutsideSwitch      Code = 3015
	LowDuplicateDefault       Code = 3016
	LowNotCallable            Code = 3017
	LowArgumentCount          Code = 3018
	LowFunctionAsValue        Code = 3019
	LowNonConstantInitializer Code = 3020
	LowInvalidInitializer     Code = 3021
	LowNestedFunction         Code = 3022
	LowInvalidStorageClass    Code = 3023
	LowInvalidCast            Code = 3024
	LowInvalidSwitchType      Code = 3025

	// lowering warnings
	LowDivisionByZero  Code = 3100
	LowShiftOutOfRange Code = 3101

	// code generation
	GenInfo              Code = 4000
	GenUnsupportedTarget Code = 4001

	// I/O
	IOLoadFileError Code = 5001

	// observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexBadNumber:                "Malformed numeric literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexTokenTooLong:             "Token too long",

	SynInfo:               "Syntax information",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectSemicolon:    "Expected semicolon",
	SynExpectExpression:   "Expected expression",
	SynExpectType:         "Expected type specifier",
	SynExpectIdentifier:   "Expected identifier",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynUnclosedBrace:      "Unclosed brace",
	SynUnclosedBracket:    "Unclosed bracket",
	SynBadDeclarator:      "Malformed declarator",
	SynBadSpecifiers:      "Invalid combination of specifiers",
	SynExpectColon:        "Expected colon",
	SynBadArraySize:       "Invalid array size",
	SynUnexpectedTopLevel: "Unexpected top-level item",

	LowInfo:                   "Lowering information",
	LowUndeclaredIdentifier:   "Use of undeclared identifier",
	LowRedeclaration:          "Redeclaration in the same scope",
	LowConflictingTypes:       "Conflicting types for declaration",
	LowConflictingLinkage:     "Conflicting linkage for declaration",
	LowRedefinition:           "Symbol defined more than once",
	LowNotAnLvalue:            "Expression is not assignable",
	LowInvalidOperands:        "Invalid operands to operator",
	LowTypeMismatch:           "Incompatible types",
	LowBreakOutsideLoop:       "break outside of loop or switch",
	LowContinueOutsideLoop:    "continue outside of loop",
	LowUndefinedLabel:         "Use of undefined label",
	LowDuplicateLabel:         "Label defined more than once",
	LowNonConstantCase:        "Case label is not an integer constant",
	LowDuplicateCase:          "Duplicate case value",
	LowCaseOutsideSwitch:      "case or default outside of switch",
	LowDuplicateDefault:       "Multiple default labels in one switch",
	LowNotCallable:            "Called object is not a function",
	LowArgumentCount:          "Wrong number of arguments",
	LowFunctionAsValue:        "Function used as a value",
	LowNonConstantInitializer: "Initializer is not a constant",
	LowInvalidInitializer:     "Invalid initializer",
	LowNestedFunction:         "Nested function definition",
	LowInvalidStorageClass:    "Invalid storage class",
	LowInvalidCast:            "Invalid cast",
	LowInvalidSwitchType:      "Switch on non-integer value",

	LowDivisionByZero:  "Division by zero",
	LowShiftOutOfRange: "Shift count out of range",

	GenInfo:              "Codegen information",
	GenUnsupportedTarget: "Unsupported target",

	IOLoadFileError: "I/O error",

	ObsInfo:    "Observability information",
	ObsTimings: "Stage timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Stage derives the originating stage from the code range.
func (c Code) Stage() Stage {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return StageLex
	case ic >= 2000 && ic < 3000:
		return StageParse
	case ic >= 3000 && ic < 4000:
		return StageLower
	case ic >= 4000 && ic < 5000:
		return StageCodegen
	case ic >= 5000 && ic < 7000:
		return StageDriver
	}
	return StageUnknown
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
