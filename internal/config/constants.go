package config

// ConfigFileNames are looked up, in order, by FindConfig.
var ConfigFileNames = []string{"xcvm.yaml", "xcvm.yml"}

// ProgramFileExtensions are the recognized program file extensions
var ProgramFileExtensions = []string{".xcvm.yaml", ".xcvm.yml"}

// RegisterPrefix is printed before a register number: x1, x2, ...
const RegisterPrefix = "x"

// NullRegisterText is printed for a register that holds no value.
const NullRegisterText = "null"

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults applied by ParseConfig
const (
	DefaultLogLevel = "info"
	DefaultColor    = ColorAuto
)

// MaxRegisters bounds the register file a program may declare or use.
const MaxRegisters = 1 << 16
