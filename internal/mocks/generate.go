// Package mocks provides gomock implementations of the goSession storage interfaces.
//
// The mocks are generated with go:generate; regenerate them after changing an interface.
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go -mock_names=Store=MockTokenStore github.com/MrEthical07/goSession/tokens Store

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cookie_store_mock.go -mock_names=Store=MockCookieStore github.com/MrEthical07/goSession/cookies Store
