package embedded

import (
	_ "embed"
)

// Interpreter system prompts
//
//go:embed data/prompts/first_command.txt
var FirstCommandTxt []byte

//go:embed data/prompts/modify_command.txt
var ModifyCommandTxt []byte
