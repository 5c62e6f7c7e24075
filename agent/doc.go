// Package agent contains the conversational agent that hosts a model.Model.
//
// A ModelAgent turns a user turn into a model conversation: it resolves its
// instructions (static text or dynamic providers), asks the model for any
// prompt augmentation, replays the trimmed session history and streams the
// reply back as a pull iterator. History is recorded only once a reply has
// been fully consumed, so an abandoned or failed turn leaves the session
// untouched.
package agent
