// Package learn trains and persists the matcher: CART trees, random forests,
// multinomial logistic regression, stratified splitting, randomized search
// over forest parameters, evaluation metrics and the compressed artifact.
//
// Every model is fitted inside a Pipeline, which owns the one-hot encoder of
// the match contract. A Pipeline loaded from an artifact satisfies
// match.Matcher and can be handed to a match.MatcherHandle.
package learn
