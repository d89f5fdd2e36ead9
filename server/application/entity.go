package application

const (
	ProjectileSpeed float64 = 1.0 // 弾丸の1tickあたりの移動距離
	ObstacleSpeed   float64 = 0.1 // 岩の1tickあたりの移動距離（弾丸の1/10）
	KillRadius      float64 = 20.0
	DeathRadius     float64 = 30.0
)

// Projectile は自機から発射された弾丸です。
// Directionは生成後に変更されず、AdvanceはPositionのみを更新します。
type Projectile struct {
	Position  Vec2
	Direction Vec2
	Speed     float64
}

// NewProjectile は原点から指定方向へ飛ぶ弾丸を生成します。
func NewProjectile(direction Vec2) *Projectile {
	return &Projectile{
		Direction: direction,
		Speed:     ProjectileSpeed,
	}
}

// Advance は位置を1tick分進めます。境界判定は行いません。
func (p *Projectile) Advance() {
	p.Position = p.Position.Add(p.Direction.Scale(p.Speed))
}

// DistanceFromOrigin は原点（自機）からの距離を返します。
func (p *Projectile) DistanceFromOrigin() float64 {
	return p.Position.Norm()
}

// DistanceTo は指定位置までの距離を返します。衝突判定に使います。
func (p *Projectile) DistanceTo(pos Vec2) float64 {
	return p.Position.DistanceTo(pos)
}

// Obstacle はアリーナ外周から内側へ漂う岩です。
// Directionは生成後に変更されず、AdvanceはPositionのみを更新します。
type Obstacle struct {
	Position  Vec2
	Direction Vec2
	Speed     float64
}

// NewObstacle は指定位置から指定方向へ漂う岩を生成します。
func NewObstacle(direction, pos Vec2) *Obstacle {
	return &Obstacle{
		Position:  pos,
		Direction: direction,
		Speed:     ObstacleSpeed,
	}
}

// Advance は位置を1tick分進めます。境界判定は行いません。
func (o *Obstacle) Advance() {
	o.Position = o.Position.Add(o.Direction.Scale(o.Speed))
}

// DistanceFromOrigin は原点（自機）からの距離を返します。
func (o *Obstacle) DistanceFromOrigin() float64 {
	return o.Position.Norm()
}
