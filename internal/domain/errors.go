package domain

import "errors"

var (
	ErrRecipeTitleRequired     = errors.New("recipe title required")
	ErrRecipeNoSteps           = errors.New("recipe has no steps")
	ErrStepInstructionRequired = errors.New("step instruction required")
)
