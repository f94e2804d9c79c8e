// Package watch observes the browser download directory, detecting newly
// completed downloads while ignoring in-progress download artifacts.
package watch
