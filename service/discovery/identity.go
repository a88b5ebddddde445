package discovery

import "github.com/elC0mpa/cloud-steward/model"

// IdentityFailure classifies a failed identity probe. Anything other than a
// transient network failure means the credentials cannot be used.
func IdentityFailure(op string, err error, classify Classifier) error {
	if classify == nil {
		classify = model.ClassifyTransport
	}
	err = classify(op, err)
	if model.IsNetwork(err) || model.IsAuthentication(err) {
		return err
	}
	return &model.AuthenticationError{Op: op, Err: err}
}
