package room

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Session tokens prove that a reconnecting client is the same session that
// was previously admitted to a room. The self-asserted userId alone is
// never enough to regain membership or host authority. Tokens carry the
// room's creation stamp so a token outlives neither the room it was issued
// for: a later room under the same id is a different incarnation.

type sessionClaims struct {
	UserId        string
	RoomId        string
	RoomCreatedAt int64
}

func (s service) generateSessionToken(userId, roomId string, roomCreatedAt int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":         userId,
		"room_id":         roomId,
		"room_created_at": roomCreatedAt,
	})

	return token.SignedString([]byte(s.secret))
}

func (s service) parseSessionToken(tokenString string) (*sessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userId, _ := claims["user_id"].(string)
	roomId, _ := claims["room_id"].(string)
	roomCreatedAt, _ := claims["room_created_at"].(float64)
	if userId == "" || roomId == "" || roomCreatedAt == 0 {
		return nil, errors.New("invalid token claims")
	}

	return &sessionClaims{
		UserId:        userId,
		RoomId:        roomId,
		RoomCreatedAt: int64(roomCreatedAt),
	}, nil
}
