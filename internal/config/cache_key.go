package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the JTI of a user's active login
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// QuizPayloadKey returns the cache key for a generated quiz, answer key included
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// UserQuizAnswersKey returns the hash key for a user's autosaved answers
func (r *CacheKeyStruct) UserQuizAnswersKey(userID int, quizID string) string {
	return fmt.Sprintf("user:%d:quiz:%s:answers", userID, quizID)
}

// QuizResultKey marks a quiz as already graded for a user
func (r *CacheKeyStruct) QuizResultKey(userID int, quizID string) string {
	return fmt.Sprintf("user:%d:quiz:%s:result", userID, quizID)
}

var CacheKey = NewCacheKeyStruct()
