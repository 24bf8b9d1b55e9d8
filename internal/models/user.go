package models

// AuthenticatedUser is the locally held identity of the signed-in user.
// Created on sign-in, persisted until sign-out, rehydrated on start.
type AuthenticatedUser struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}
