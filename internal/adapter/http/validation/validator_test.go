package http

import (
	"testing"

	"todotracker/internal/core/model/request"

	. "github.com/onsi/gomega"
)

func TestFormatValidationErrors(t *testing.T) {
	RegisterTestingT(t)

	err := Validator.Struct(request.SignUpRequest{Username: "ab"})
	Expect(err).To(HaveOccurred())

	errors := FormatValidationErrors(err)
	Expect(errors).To(HaveLen(2))
	Expect(errors[0].Field).To(Equal("username"))
	Expect(errors[0].Message).To(Equal("Username must be at least 3 characters"))
	Expect(errors[1].Field).To(Equal("password"))
	Expect(errors[1].Message).To(Equal("Password is required"))
}

func TestFormatValidationErrors_NestedKeys(t *testing.T) {
	RegisterTestingT(t)

	err := Validator.Struct(request.PushSubscriptionRequest{Endpoint: "not a url"})
	errors := FormatValidationErrors(err)

	Expect(errors).To(ContainElement(HaveField("Message", "Endpoint must be a valid URL")))
	Expect(errors).To(ContainElement(HaveField("Message", "Key p256dh is required")))
}
