package core

import "github.com/orviagent/orvi/pkg/types"

type Step = types.Step

type Sequence = types.Sequence

type Mission = types.Mission

type Validation = types.Validation

type ExecutionContext = types.ExecutionContext

type ExecutionResult = types.ExecutionResult

type Logger = types.Logger

type Level = types.Level

// Level constants
const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)

// CoordinateTable maps a normalized challenge key to its secret value.
type CoordinateTable map[string]string
