package utils

import (
	"math"

	"golang.org/x/crypto/bcrypt"
)

// XPThreshold 从 level 升到 level+1 所需经验: floor(100 * 1.5^(level-1))
func XPThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	need := math.Floor(100 * math.Pow(1.5, float64(level-1)))
	// 高等级超出 int 范围时封顶，保证升级循环能结束
	if need >= math.MaxInt {
		return math.MaxInt
	}
	return int(need)
}

// LevelProgress returns the percentage (0-100) of the way to the next level.
func LevelProgress(xp, level int) int {
	need := XPThreshold(level)
	if need <= 0 {
		return 0
	}
	p := xp * 100 / need
	if p > 100 {
		return 100
	}
	return p
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with its bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
