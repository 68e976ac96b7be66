package handler

import "errors"

var (
	errTitleTooLong        = errors.New("title must be at most 255 characters")
	errActivityTypeTooLong = errors.New("activityType must be at most 50 characters")
	errTooManyTags         = errors.New("at most 50 tags of up to 100 characters each")
)
