package model

import "errors"

var ErrorStorageFailure = errors.New("local storage failure")
var ErrorRelayTimeout = errors.New("no relay response within timeout")
var ErrorNotConnected = errors.New("relay not connected")
var ErrorRemoteWrite = errors.New("remote store write failed")
var ErrorUserNotFound = errors.New("user not found")
var ErrorNotFound = errors.New("not found")
var ErrorEmptyMessage = errors.New("empty message")
var ErrorInvalidSession = errors.New("invalid session token")
