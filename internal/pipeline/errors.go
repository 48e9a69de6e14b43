package pipeline

import "errors"

var (
	errInvalidFoodSignal    = errors.New("foodSignal must be one of NO, UNCERTAIN, YES")
	errConfidenceOutOfRange = errors.New("confidence must be within [0,1]")
	errInvalidTargetType    = errors.New("targetType must be one of EXACT, COORDS, FREE")
)
