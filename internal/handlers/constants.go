package handlers

import "time"

const (
	// Child-facing error texts; technical detail only goes to the log
	ErrInvalidRequest       = "Oops! That didn't look right."
	ErrUnauthorized         = "Please start a new quest."
	ErrSessionNotFound      = "This quest has ended. Let's start a new one!"
	ErrMoodAlreadyChosen    = "You already picked your mood!"
	ErrInvalidMood          = "Please pick happy, neutral or sad."
	ErrTooManyRequests      = "Whoa, slow down a little!"
	ErrNoCapture            = "There are no butterflies to catch right now."
	ErrAnswerRequired       = "Please write an answer first."
	ErrAnswerTooLong        = "What a big answer! Can you make it a little shorter?"
	ErrJournalOutOfOrder    = "Let's answer the questions in order."
	ErrInternalServerError  = "Something went wrong. Please try again."
	ErrCameraDeniedResponse = "Camera access is needed to catch butterflies! Please allow access and try again."
)

const (
	maxRequestBody = 64 << 10
	maxStepFrames  = 200

	// SessionTokenTTL bounds how long a browser can keep driving one quest
	SessionTokenTTL = 24 * time.Hour
)
