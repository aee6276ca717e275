// Package apitests holds the API suites. They run against an in-process fake
// API unless APITEST_LIVE=true, in which case the configured environment
// (ENVIRONMENT or APITEST_ENV) is targeted with its auth token.
package apitests
