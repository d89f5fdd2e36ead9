package application

import (
	"errors"
	"math"
	"math/rand/v2"
)

// Rand は岩の生成に使う乱数源です。テストから決定的な列を注入できます。
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int   { return rand.IntN(n) }
func (defaultRand) Float64() float64 { return rand.Float64() }

var ErrInvalidArenaSize = errors.New("arena width and height must be positive")

// Arena は生存中の全弾丸と岩を所有し、tick単位のシミュレーションを提供します。
// コレクションはどちらも挿入順で、変更はArena自身のみが行います。
// 全操作は単一goroutineから呼ばれる前提で、ロックを持ちません。
type Arena struct {
	width  float64
	height float64

	projectiles []*Projectile
	obstacles   []*Obstacle

	rng Rand
}

// NewArena は指定サイズのアリーナを生成します。1ゲームセッションにつき1つ作り、
// リスタート時には作り直します。rngがnilの場合はmath/rand/v2を使います。
func NewArena(width, height int, rng Rand) (*Arena, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidArenaSize
	}
	if rng == nil {
		rng = defaultRand{}
	}
	return &Arena{
		width:  float64(width),
		height: float64(height),
		rng:    rng,
	}, nil
}

// Fire は自機の向き（度）から弾丸を1発生成します。
// 0度が画面上方向で、角度の増加は時計回りです（画面座標系はY軸下向き）。
// クールダウンや弾数制限はなく、1回の呼び出しで必ず1発追加されます。
func (a *Arena) Fire(angleDeg float64) {
	rad := angleDeg*math.Pi/180 - math.Pi/2
	dir := Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
	a.projectiles = append(a.projectiles, NewProjectile(dir))
}

// SpawnObstacle はアリーナ外周上のランダムな位置に岩を1つ生成します。
// 辺の選択は周長[0, 2(w+h))上の一様整数1回で行い、辺の長さに比例した重みになります。
// 進行方向は一様な角度から作り、辺ごとの符号強制で内側を向くよう補正します。
// 符号規則は辺ごとに非対称です（右辺は両軸、左辺はX軸のみ強制）。
func (a *Arena) SpawnObstacle() {
	p := float64(a.rng.IntN(int(2 * (a.width + a.height))))
	angle := a.rng.Float64() * 2 * math.Pi
	cos := math.Cos(angle)
	sin := math.Sin(angle)

	var pos, dir Vec2
	switch {
	case p < a.width: // 上辺
		pos = Vec2{X: p, Y: 0}
		dir = Vec2{X: cos, Y: math.Abs(sin)}
	case p < a.width+a.height: // 右辺
		pos = Vec2{X: a.width, Y: p - a.width}
		dir = Vec2{X: -math.Abs(cos), Y: math.Abs(sin)}
	case p < 2*a.width+a.height: // 下辺
		pos = Vec2{X: p - (a.width + a.height), Y: a.height}
		dir = Vec2{X: cos, Y: -math.Abs(sin)}
	default: // 左辺
		pos = Vec2{X: 0, Y: p - (2*a.width + a.height)}
		dir = Vec2{X: math.Abs(cos), Y: sin}
	}

	// 矩形左上原点の座標を、自機を原点とする座標系に平行移動する
	pos.X -= a.width / 2
	pos.Y -= a.height / 2

	a.obstacles = append(a.obstacles, NewObstacle(dir, pos))
}

// checkKill は弾丸と岩の衝突を解決します。距離がKillRadius未満のペアは
// 両方を即時に取り除き、取り除いた個体は同一pass内で再比較しません。
// 走査は弾丸・岩ともに末尾から行い、削除によるインデックスずれが
// 未訪問の要素に影響しないようにしています。
func (a *Arena) checkKill() {
	for i := len(a.projectiles) - 1; i >= 0; i-- {
		for j := len(a.obstacles) - 1; j >= 0; j-- {
			if a.projectiles[i].DistanceTo(a.obstacles[j].Position) < KillRadius {
				a.projectiles = append(a.projectiles[:i], a.projectiles[i+1:]...)
				a.obstacles = append(a.obstacles[:j], a.obstacles[j+1:]...)
				break
			}
		}
	}
}

// AdvanceTick はシミュレーションを正確に1tick進めます。
// 順序: 衝突解決 → 弾丸の除去(距離>width)または前進 → 岩の除去(距離>2*width)または前進。
// 死亡判定はここでは行いません（呼び出し側がAdvanceTickの前に評価します）。
func (a *Arena) AdvanceTick() {
	a.checkKill()

	for i := len(a.projectiles) - 1; i >= 0; i-- {
		if a.projectiles[i].DistanceFromOrigin() > a.width {
			a.projectiles = append(a.projectiles[:i], a.projectiles[i+1:]...)
		} else {
			a.projectiles[i].Advance()
		}
	}

	for i := len(a.obstacles) - 1; i >= 0; i-- {
		if a.obstacles[i].DistanceFromOrigin() > 2*a.width {
			a.obstacles = append(a.obstacles[:i], a.obstacles[i+1:]...)
		} else {
			a.obstacles[i].Advance()
		}
	}
}

// IsDead はいずれかの岩が原点からDeathRadius未満に達していればtrueを返します。
// 岩が1つもなければfalseです。純粋な問い合わせで、状態を変更しません。
func (a *Arena) IsDead() bool {
	for _, o := range a.obstacles {
		if o.DistanceFromOrigin() < DeathRadius {
			return true
		}
	}
	return false
}

// Projectiles は描画用に弾丸の位置スナップショットを返します。
func (a *Arena) Projectiles() []Vec2 {
	positions := make([]Vec2, 0, len(a.projectiles))
	for _, p := range a.projectiles {
		positions = append(positions, p.Position)
	}
	return positions
}

// Obstacles は描画用に岩の位置スナップショットを返します。
func (a *Arena) Obstacles() []Vec2 {
	positions := make([]Vec2, 0, len(a.obstacles))
	for _, o := range a.obstacles {
		positions = append(positions, o.Position)
	}
	return positions
}
