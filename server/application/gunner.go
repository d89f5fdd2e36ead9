package application

import (
	"math"
	"math/rand/v2"

	"rockfall/server/domain"
	"rockfall/utils"
)

const (
	// 回転が10度刻みなので、照準誤差がこれ以下なら狙えたとみなす
	minFireSlack float64 = 6.0
	// 毎tick一定確率で照準に関係なく発射する
	wildFireChance float64 = 0.02
)

// GunnerController は最寄りの岩へ照準を合わせるルールベースの自動操縦です。
// 個体ごとに異なる射撃精度を持ちます。
type GunnerController struct {
	FireSlack float64 // 発射を許す照準誤差（度）
}

// NewGunnerController はランダムな個性を持つ自動操縦を生成します。
func NewGunnerController() *GunnerController {
	return &GunnerController{
		FireSlack: minFireSlack + rand.Float64()*6.0, // 6〜12度
	}
}

// Decide は現在の自機の向きと岩の位置から、次に送るキー入力を決めます。
// 岩がなければ0を返します。
func (g *GunnerController) Decide(angleDeg float64, obstacles []Vec2) uint32 {
	nearest, ok := g.findNearestObstacle(obstacles)
	if !ok {
		return 0
	}

	// 0度=画面上方向・時計回り正の座標系で、岩への方位角を求める
	targetDeg := math.Atan2(nearest.X, -nearest.Y) * 180 / math.Pi
	diff := normalizeAngle(targetDeg - angleDeg)

	var keyMask uint32
	switch {
	case math.Abs(diff) <= g.FireSlack:
		keyMask |= domain.KeyFire
	case diff > 0:
		keyMask |= domain.KeyRotateRight
	default:
		keyMask |= domain.KeyRotateLeft
	}

	if keyMask&domain.KeyFire == 0 && rand.Float64() < wildFireChance {
		keyMask |= domain.KeyFire
	}
	return keyMask
}

// findNearestObstacle は原点に最も近い岩を探します。
// ネットワーク経由の値なので非有限の座標は無視します。
func (g *GunnerController) findNearestObstacle(obstacles []Vec2) (Vec2, bool) {
	var nearest Vec2
	nearestDist := math.MaxFloat64
	found := false

	for _, o := range obstacles {
		if !utils.FiniteXY(o.X, o.Y) {
			continue
		}
		dist := o.Norm()
		if dist < nearestDist {
			nearestDist = dist
			nearest = o
			found = true
		}
	}
	return nearest, found
}

// normalizeAngle は角度差を(-180, 180]に正規化します。
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}
