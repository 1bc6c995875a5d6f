// Package memberauth implements the credential lifecycle for a member-profile
// service: signed session tokens, single-use account-activation tokens, and
// time-boxed password-reset tokens.
//
// The package is organized around small ports (Identity, IdentityProvider,
// Mailer, Config) so the persistence layer and the outbound email transport
// stay external collaborators. Flows are expressed as message/handler pairs
// (see command_register_profile.go and friends) and the HTTP surface lives in
// http_controller.go plus middleware/jwtware.
package memberauth
