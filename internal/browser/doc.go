// Package browser drives the TTS web UI through the Chrome DevTools
// Protocol. It attaches to an already-running Chrome instance via its remote
// debugging port and interacts with the page by evaluating scripts against
// operator-supplied XPath selectors, the same way a human-driven session
// would.
package browser
